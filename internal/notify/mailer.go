// internal/notify/mailer.go
//
// Intake – e-mail transports.
//
// Context
//   Notifier renders messages and hands them to a Mailer.  Three transports
//   exist:
//
//     •  ResendMailer  – production transport over the Resend API.
//     •  LogMailer     – development transport; logs the envelope and drops
//                       the body, so no PHI reaches the log.
//     •  Unconfigured  – returned when no API key is set outside
//                       development.  Every Send fails with
//                       ErrNotConfigured, which turns the practice
//                       notification into a 500 and the confirmation into a
//                       skip.
//
//------------------------------------------------------------------------------

package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned by Unconfigured.
var ErrNotConfigured = errors.New("mail transport not configured")

// Email is one outbound message.
type Email struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

// Mailer delivers an Email or returns an error.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// -----------------------------------------------------------------------------
// Resend
// -----------------------------------------------------------------------------

// ResendMailer sends through the Resend HTTP API.
type ResendMailer struct {
	client *resend.Client
}

// NewResendMailer returns a transport authenticated with apiKey.
func NewResendMailer(apiKey string) (*ResendMailer, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	return &ResendMailer{client: resend.NewClient(apiKey)}, nil
}

// Send implements Mailer.
func (m *ResendMailer) Send(ctx context.Context, msg Email) error {
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	}
	if _, err := m.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Development and unconfigured transports
// -----------------------------------------------------------------------------

// LogMailer logs the envelope and returns nil.
type LogMailer struct {
	Log *zap.SugaredLogger
}

// Send implements Mailer.
func (m LogMailer) Send(_ context.Context, msg Email) error {
	log := m.Log
	if log == nil {
		log = zap.S()
	}
	log.Infow("mail (log transport)",
		"recipients", len(msg.To),
		"subject_len", len(msg.Subject),
		"html_len", len(msg.HTML),
	)
	return nil
}

// Unconfigured fails every send.
type Unconfigured struct{}

// Send implements Mailer.
func (Unconfigured) Send(context.Context, Email) error { return ErrNotConfigured }
