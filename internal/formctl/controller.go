// internal/formctl/controller.go
//
// Intake – form controller.
//
// Context
//   The controller is the client half of the intake contract.  It validates
//   with the same intake.Schema the server uses, so a form that passes here
//   only fails on the server for policy reasons (rate limit, origin, size)
//   or dispatch failures.
//
// Workflow
//   1. Reduce applies field events and dependent-field cleanup.
//   2. Validate runs the shared schema against the current answers and
//      fills State.Errors.  A "Yes" on the safety screen yields the crisis
//      message and the form is never sent.
//   3. Submit serializes the answers (honeypot included, always empty),
//      POSTs them, and interprets the JSON response into an Outcome.  A
//      success resets the form.
//
//------------------------------------------------------------------------------

package formctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/intake"
)

// Banner messages shown when the server did not supply one.
const (
	MsgAccepted = "Thank you for your request. We will contact you soon."
	MsgNetwork  = "Network error. Please check your connection and try again."
	MsgGeneric  = "An error occurred. Please try again later."
)

// ErrInvalidResponse is set on an Outcome when the server answered with
// something other than a JSON object.
var ErrInvalidResponse = errors.New("invalid response format")

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 64 << 10

// Outcome is the interpreted result of one submit.
type Outcome struct {
	OK      bool
	Status  int               // HTTP status, 0 when no response arrived
	Message string            // banner text
	Fields  map[string]string // per-field errors from the server, if any
	Err     error             // transport or decoding failure
}

// Controller is safe for concurrent use; State values are not shared.
type Controller struct {
	schema   *intake.Schema
	deps     map[string][]string
	endpoint string
	origin   string
	client   *http.Client
	now      func() time.Time
	log      *zap.SugaredLogger
}

// Option tunes a Controller.
type Option func(*Controller)

// WithHTTPClient replaces the default client (10 s timeout).
func WithHTTPClient(c *http.Client) Option { return func(ctl *Controller) { ctl.client = c } }

// WithOrigin sets the Origin header sent with every submit.
func WithOrigin(origin string) Option { return func(ctl *Controller) { ctl.origin = origin } }

// WithClock overrides time.Now for date validation.
func WithClock(now func() time.Time) Option { return func(ctl *Controller) { ctl.now = now } }

// WithLogger sets the logger.  Defaults to zap.S().
func WithLogger(l *zap.SugaredLogger) Option { return func(ctl *Controller) { ctl.log = l } }

// New returns a controller that submits to endpoint.
func New(schema *intake.Schema, endpoint string, opts ...Option) *Controller {
	c := &Controller{
		schema:   schema,
		deps:     schema.Dependents(),
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
		log:      zap.S(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Validate checks s against the schema and returns s with Errors replaced.
func (c *Controller) Validate(s State) (State, bool) {
	next := s.clone()
	next.Errors = map[string]string{}

	res := c.schema.Validate(s.Values, c.now())
	switch {
	case res.SafetyOverride:
		next.Errors[intake.FieldHarmThoughts] = intake.CrisisMessage
		next.Status = StatusFailed
		next.Message = intake.CrisisMessage
		return next, false
	case !res.Valid():
		for _, e := range res.Errors {
			next.Errors[e.Name] = e.Message
		}
		return next, false
	}
	return next, true
}

// Payload serializes the answers.  The honeypot key is always present and
// empty.
func (c *Controller) Payload(s State) ([]byte, error) {
	out := make(map[string]any, len(s.Values)+1)
	for k, v := range s.Values {
		out[k] = v
	}
	out[intake.HoneypotField] = ""
	return json.Marshal(out)
}

// Submit validates s and, when it passes, posts it.  The returned State
// reflects the outcome.  A locally invalid form is not sent and yields an
// Outcome with Status 0 and no Err.
func (c *Controller) Submit(ctx context.Context, s State) (State, Outcome) {
	s.Status, s.Message = StatusIdle, ""
	checked, ok := c.Validate(s)
	if !ok {
		return checked, Outcome{Message: checked.Message, Fields: checked.Errors}
	}

	busy := c.Reduce(checked, SubmitStarted{})
	out := c.post(ctx, busy)
	c.log.Debugw("intake submit finished", "status", out.Status, "ok", out.OK, "err", out.Err)
	return c.Reduce(busy, SubmitFinished{Outcome: out}), out
}

type response struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func (c *Controller) post(ctx context.Context, s State) Outcome {
	body, err := c.Payload(s)
	if err != nil {
		return Outcome{Message: MsgGeneric, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Outcome{Message: MsgGeneric, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Outcome{Message: MsgNetwork, Err: fmt.Errorf("post %s: %w", c.endpoint, err)}
	}
	defer resp.Body.Close()

	out := Outcome{Status: resp.StatusCode}
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		out.Message, out.Err = MsgGeneric, ErrInvalidResponse
		return out
	}
	var data response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&data); err != nil {
		out.Message, out.Err = MsgGeneric, errors.Join(ErrInvalidResponse, err)
		return out
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && data.Success {
		out.OK = true
		out.Message = data.Message
		if out.Message == "" {
			out.Message = MsgAccepted
		}
		return out
	}
	out.Message = data.Error
	if out.Message == "" {
		out.Message = MsgGeneric
	}
	out.Fields = data.Fields
	return out
}
