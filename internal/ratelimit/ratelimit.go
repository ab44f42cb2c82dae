// internal/ratelimit/ratelimit.go
//
// Intake – per-source submission rate limiting.
//
// Context
//   The policy gate asks a Limiter whether one more submission from a client
//   key may proceed.  Two stores implement the same fixed-window contract:
//
//     •  MemoryStore – single-process, counters in a bounded LRU.
//     •  RedisStore  – shared across replicas, INCR + PEXPIRE in one script.
//
//   Within a window the count per key only grows; the first request after
//   the window ends starts a fresh one.
//
//------------------------------------------------------------------------------

package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Limiter consumes one unit for key and reports whether it was allowed.
type Limiter interface {
	CheckAndConsume(ctx context.Context, key string) (bool, error)
}

// Policy is the window shape shared by both stores.
type Policy struct {
	Limit  int
	Window time.Duration
}

func (p Policy) validate() error {
	if p.Limit < 1 {
		return fmt.Errorf("ratelimit: limit must be ≥1, got %d", p.Limit)
	}
	if p.Window <= 0 {
		return fmt.Errorf("ratelimit: window must be positive, got %s", p.Window)
	}
	return nil
}
