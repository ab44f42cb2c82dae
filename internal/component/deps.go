// internal/component/deps.go
package component

import (
	"time"

	"go.uber.org/zap"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/intake"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/notify"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/policy"
)

// Deps exposes process-wide collaborators to Components during Init.
type Deps struct {
	Dev        bool // adds internal error details to responses
	Schema     *intake.Schema
	Gate       *policy.Gate
	Dispatcher notify.Dispatcher
	Log        *zap.SugaredLogger
	Now        func() time.Time // nil means time.Now
}
