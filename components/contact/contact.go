// components/contact/contact.go
//
// Contact Component – the patient intake endpoint.
//
// Context
//   POST /api/contact is the only wire contract of the intake pipeline.  A
//   request moves through three stages and ends in exactly one outcome:
//
//     Received → Rejected   (policy gate or schema validation)
//              → Safety     (safety screen answered "Yes")
//              → Accepted   (practice notified; confirmation attempted)
//
//   Rejections and the safety override return before any side effect.  On
//   acceptance the practice notification must succeed; its failure is the
//   only path to a 500.  The confirmation result is logged and never
//   changes the response.
//
//   Notifications run on a context detached from the request, so a client
//   that disconnects mid-request does not cancel the practice e-mail.
//
//   GET /contact/form serves the questionnaire rendered from the schema.
//
//------------------------------------------------------------------------------

package contact

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/component"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/intake"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/metrics"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/notify"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/policy"
)

// Public response messages.
const (
	MsgAccepted         = "Thank you for your request. We will contact you soon."
	MsgDispatchFailed   = "Failed to send your message. Please try again later or contact us directly."
	MsgMethodNotAllowed = "Method not allowed"
	MsgInternal         = "An error occurred. Please try again later."
)

// compile-time assertions
var _ component.Component = (*Comp)(nil)

// Comp implements component.Component.  The zero value is registered at init
// and becomes usable after Init.
type Comp struct {
	dev      bool
	schema   *intake.Schema
	gate     *policy.Gate
	dispatch notify.Dispatcher
	log      *zap.SugaredLogger
	now      func() time.Time
	tracer   trace.Tracer
}

func (c *Comp) Name() string { return "contact" }

// Init wires the shared collaborators.
func (c *Comp) Init(d component.Deps) error {
	if d.Schema == nil || d.Gate == nil || d.Dispatcher == nil {
		return errors.New("contact: schema, gate, and dispatcher are required")
	}
	c.dev = d.Dev
	c.schema = d.Schema
	c.gate = d.Gate
	c.dispatch = d.Dispatcher
	c.log = d.Log
	if c.log == nil {
		c.log = zap.S()
	}
	c.now = d.Now
	if c.now == nil {
		c.now = time.Now
	}
	c.tracer = otel.Tracer("github.com/ShadyEe10/findyourlightpsychiatry/components/contact")
	return nil
}

func (c *Comp) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(c.recoverJSON)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: MsgMethodNotAllowed})
	})

	r.Post("/api/contact", c.submit)
	r.Get("/contact/form", c.form)
	return r
}

// Register component at package init.
func init() {
	component.Register(&Comp{})
}

/*──────────────────────────── submission ──────────────────────────────────*/

type successBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorBody struct {
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
	Details string            `json:"details,omitempty"`
}

var accepted = successBody{Success: true, Message: MsgAccepted}

func (c *Comp) submit(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	ctx, span := c.tracer.Start(r.Context(), "contact.submit",
		trace.WithAttributes(attribute.String("submission.id", id)))
	defer span.End()
	log := c.log.With("submission_id", id)

	verdict, err := c.gate.Check(r.WithContext(ctx))
	if err != nil {
		c.reject(w, span, log, err)
		return
	}
	if verdict.Trapped {
		log.Infow("honeypot triggered", "ip", verdict.ClientIP)
		span.SetAttributes(attribute.String("submission.outcome", metrics.OutcomeTrapped))
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeTrapped).Inc()
		writeJSON(w, http.StatusOK, accepted)
		return
	}

	_, vspan := c.tracer.Start(ctx, "intake.validate")
	res := c.schema.Validate(verdict.Body, c.now())
	vspan.End()

	switch {
	case res.SafetyOverride:
		log.Warnw("safety screen affirmative, submission not forwarded")
		span.SetAttributes(attribute.String("submission.outcome", metrics.OutcomeSafetyOverride))
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeSafetyOverride).Inc()
		writeJSON(w, http.StatusBadRequest, errorBody{Error: intake.CrisisMessage})
		return

	case !res.Valid():
		first, _ := res.First()
		log.Infow("submission invalid", "field", first.Name, "errors", len(res.Errors))
		span.SetAttributes(attribute.String("submission.outcome", metrics.OutcomeInvalid))
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		writeJSON(w, http.StatusBadRequest, errorBody{Error: first.Message, Fields: res.ErrorMap()})
		return
	}

	c.accept(ctx, w, span, log, res.Submission)
}

func (c *Comp) reject(w http.ResponseWriter, span trace.Span, log *zap.SugaredLogger, err error) {
	rej, ok := policy.AsRejection(err)
	if !ok {
		log.Errorw("policy gate failed", "err", err)
		span.SetStatus(codes.Error, "gate")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: MsgInternal})
		return
	}
	span.SetAttributes(
		attribute.String("submission.outcome", metrics.OutcomeRejected),
		attribute.String("rejection.reason", rej.Reason),
	)
	metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()

	body := errorBody{Error: rej.Message}
	if c.dev && errors.Is(err, policy.ErrMalformed) {
		body.Details = rej.Err.Error()
	}
	writeJSON(w, rej.Status, body)
}

func (c *Comp) accept(ctx context.Context, w http.ResponseWriter, span trace.Span, log *zap.SugaredLogger, sub *intake.Submission) {
	dctx, dspan := c.tracer.Start(context.WithoutCancel(ctx), "notify.practice")
	err := c.dispatch.SendPracticeNotification(dctx, sub)
	dspan.End()
	if err != nil {
		log.Errorw("practice notification failed", "err", err,
			"location", sub.LocationPreference, "submitted_at", sub.SubmittedAt)
		span.RecordError(err)
		span.SetStatus(codes.Error, "practice notification")
		span.SetAttributes(attribute.String("submission.outcome", metrics.OutcomeDispatchFailed))
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeDispatchFailed).Inc()

		body := errorBody{Error: MsgDispatchFailed}
		if c.dev {
			body.Details = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, body)
		return
	}

	cctx, cspan := c.tracer.Start(context.WithoutCancel(ctx), "notify.confirmation")
	result := c.dispatch.SendConfirmationNotification(cctx, sub)
	cspan.SetAttributes(attribute.String("confirmation.result", result.String()))
	cspan.End()

	log.Infow("submission accepted", "confirmation", result.String(), "contact_method", sub.ContactMethod)
	span.SetAttributes(attribute.String("submission.outcome", metrics.OutcomeAccepted))
	metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
	writeJSON(w, http.StatusOK, accepted)
}

/*──────────────────────────── form page ───────────────────────────────────*/

var page = template.Must(template.New("contact").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Request an Appointment</title>
</head>
<body>
  <h1>Request an Appointment</h1>
  <p class="crisis">If you are in crisis, call 988 or go to the nearest emergency room.  This form is not for emergencies.</p>
  <form id="intake" method="post" action="/api/contact" novalidate>
    {{ .Form }}
    <button type="submit">Submit Request</button>
  </form>
</body>
</html>`))

func (c *Comp) form(w http.ResponseWriter, _ *http.Request) {
	markup, err := c.schema.RenderForm(nil)
	if err != nil {
		c.log.Errorw("form render failed", "err", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, map[string]any{"Form": markup}); err != nil {
		c.log.Errorw("form page write failed", "err", err)
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// internalBody is served when a response cannot be marshaled.
var internalBody = []byte(`{"error":"` + MsgInternal + `"}`)

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		status, b = http.StatusInternalServerError, internalBody
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// recoverJSON turns a handler panic into the generic JSON 500.
func (c *Comp) recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				c.log.Errorw("handler panic", "panic", rec, "path", r.URL.Path)
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: MsgInternal})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
