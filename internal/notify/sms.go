// internal/notify/sms.go
//
// Intake – SMS confirmation over Twilio.
//
// Context
//   Patients who prefer to be contacted by text also receive a short SMS
//   confirmation.  The body names the practice and nothing about the
//   request itself; SMS is not a PHI channel.
//
//------------------------------------------------------------------------------

package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/sanitize"
)

// ErrBadNumber is returned when a phone number cannot be mapped to E.164.
var ErrBadNumber = errors.New("phone number not convertible to E.164")

// Texter sends one SMS.
type Texter interface {
	SendSMS(ctx context.Context, to, body string) error
}

// TwilioTexter sends through the Twilio Messages API.
type TwilioTexter struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioTexter returns a Texter, or an error when any credential is
// missing.
func NewTwilioTexter(accountSID, authToken, from string) (*TwilioTexter, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("twilio: account SID, auth token, and from number are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioTexter{client: client, from: from}, nil
}

// SendSMS implements Texter.  The Twilio SDK takes no context; ctx is
// checked before the call.
func (t *TwilioTexter) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	if _, err := t.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	return nil
}

// E164 maps a normalized North American phone number to +1XXXXXXXXXX.
// Numbers already written with a leading + keep their country code.
func E164(phone string) (string, error) {
	digits := sanitize.Digits(phone)
	switch {
	case strings.HasPrefix(strings.TrimSpace(phone), "+") && len(digits) >= 8 && len(digits) <= 15:
		return "+" + digits, nil
	case len(digits) == 10:
		return "+1" + digits, nil
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits, nil
	default:
		return "", ErrBadNumber
	}
}
