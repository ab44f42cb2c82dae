// internal/notify/notify.go
//
// Intake – notification dispatcher.
//
// Context
//   An accepted submission produces two notifications with different
//   contracts:
//
//     •  Practice notification – must succeed.  An error is returned to the
//        caller, which answers 500 so the patient knows to retry.
//     •  Confirmation – best effort.  Failures are logged and reported as a
//        ConfirmationResult value, never as an error.
//
//   The practice e-mail carries the full record with Reply-To set to the
//   patient.  The confirmation e-mail goes to the patient; when the patient
//   prefers text messages and a Texter is configured, a short SMS follows.
//
//   All values reaching a template were sanitized by the validator.
//   html/template escapes them again at render time.
//
//------------------------------------------------------------------------------

package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/intake"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/metrics"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/sanitize"
)

// Dispatcher is the notification contract used by the contact handler.
type Dispatcher interface {
	SendPracticeNotification(ctx context.Context, sub *intake.Submission) error
	SendConfirmationNotification(ctx context.Context, sub *intake.Submission) ConfirmationResult
}

// ConfirmationResult is the outcome of the best-effort send.
type ConfirmationResult int

const (
	ConfirmationSent ConfirmationResult = iota
	ConfirmationSkipped
	ConfirmationFailed
)

func (r ConfirmationResult) String() string {
	switch r {
	case ConfirmationSent:
		return "sent"
	case ConfirmationSkipped:
		return "skipped"
	case ConfirmationFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures a Notifier.
type Options struct {
	Mailer      Mailer
	Texter      Texter // nil disables SMS
	From        string
	PracticeTo  string
	Business    string
	SiteURL     string
	Phone       string
	SpravatoURL string
	Log         *zap.SugaredLogger
}

// Notifier implements Dispatcher.
type Notifier struct {
	opts Options
	log  *zap.SugaredLogger
}

var _ Dispatcher = (*Notifier)(nil)

// New validates opts and returns a Notifier.
func New(opts Options) (*Notifier, error) {
	if opts.Mailer == nil {
		return nil, errors.New("notify: mailer required")
	}
	if opts.From == "" || opts.PracticeTo == "" {
		return nil, errors.New("notify: from and practice addresses required")
	}
	if opts.SpravatoURL == "" && opts.SiteURL != "" {
		opts.SpravatoURL = opts.SiteURL + "/documents/spravato/Spravato_Patient_Information.pdf"
	}
	log := opts.Log
	if log == nil {
		log = zap.S()
	}
	return &Notifier{opts: opts, log: log}, nil
}

// SendPracticeNotification e-mails the full record to the practice.
func (n *Notifier) SendPracticeNotification(ctx context.Context, sub *intake.Submission) error {
	html, err := render(practiceTmpl, n.data(sub))
	if err != nil {
		return err
	}
	msg := Email{
		From:    n.opts.From,
		To:      []string{n.opts.PracticeTo},
		ReplyTo: sub.Email,
		Subject: "New Patient Intake - " + sanitize.Line(sub.Name),
		HTML:    html,
	}

	start := time.Now()
	err = n.opts.Mailer.Send(ctx, msg)
	metrics.DispatchSeconds.WithLabelValues("practice").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DispatchTotal.WithLabelValues("practice", "email", "failed").Inc()
		return fmt.Errorf("practice notification: %w", err)
	}
	metrics.DispatchTotal.WithLabelValues("practice", "email", "sent").Inc()
	return nil
}

// SendConfirmationNotification e-mails the patient and, when they asked to be
// texted, sends an SMS.  The result reflects the e-mail; SMS failures are
// logged only.
func (n *Notifier) SendConfirmationNotification(ctx context.Context, sub *intake.Submission) ConfirmationResult {
	res := n.confirmByEmail(ctx, sub)
	if sub.PrefersText() && n.opts.Texter != nil {
		n.confirmBySMS(ctx, sub)
	}
	return res
}

func (n *Notifier) confirmByEmail(ctx context.Context, sub *intake.Submission) ConfirmationResult {
	html, err := render(confirmationTmpl, n.data(sub))
	if err != nil {
		n.log.Warnw("confirmation render failed", "err", err)
		metrics.DispatchTotal.WithLabelValues("confirmation", "email", "failed").Inc()
		return ConfirmationFailed
	}
	msg := Email{
		From:    n.opts.From,
		To:      []string{sub.Email},
		Subject: "Appointment Request Confirmed - " + n.opts.Business,
		HTML:    html,
	}

	start := time.Now()
	err = n.opts.Mailer.Send(ctx, msg)
	metrics.DispatchSeconds.WithLabelValues("confirmation").Observe(time.Since(start).Seconds())
	switch {
	case errors.Is(err, ErrNotConfigured):
		metrics.DispatchTotal.WithLabelValues("confirmation", "email", "skipped").Inc()
		return ConfirmationSkipped
	case err != nil:
		n.log.Warnw("confirmation e-mail failed", "err", err)
		metrics.DispatchTotal.WithLabelValues("confirmation", "email", "failed").Inc()
		return ConfirmationFailed
	}
	metrics.DispatchTotal.WithLabelValues("confirmation", "email", "sent").Inc()
	return ConfirmationSent
}

func (n *Notifier) confirmBySMS(ctx context.Context, sub *intake.Submission) {
	to, err := E164(sub.Phone)
	if err != nil {
		n.log.Warnw("confirmation SMS skipped", "err", err)
		metrics.DispatchTotal.WithLabelValues("confirmation", "sms", "skipped").Inc()
		return
	}
	body := fmt.Sprintf("%s: we received your appointment request and will contact you within 1-2 business days. "+
		"If this is an emergency, call 988 or 911.", n.opts.Business)
	if err := n.opts.Texter.SendSMS(ctx, to, body); err != nil {
		n.log.Warnw("confirmation SMS failed", "err", err)
		metrics.DispatchTotal.WithLabelValues("confirmation", "sms", "failed").Inc()
		return
	}
	metrics.DispatchTotal.WithLabelValues("confirmation", "sms", "sent").Inc()
}

func (n *Notifier) data(sub *intake.Submission) templateData {
	return templateData{
		Sub:         sub,
		Business:    n.opts.Business,
		SiteURL:     n.opts.SiteURL,
		Phone:       n.opts.Phone,
		SpravatoURL: n.opts.SpravatoURL,
	}
}
