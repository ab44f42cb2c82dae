// internal/policy/errors.go
//
// Gate rejection type.
//
// Context
//   Every gate failure is a *Rejection carrying the HTTP status and the
//   public message.  Messages are deliberately generic so they do not help
//   an abuser tune requests.  Reason is a short metric label; Err keeps the
//   underlying cause for logs and for the development-mode `details` field.
//
//   Callers distinguish rejections from system failures with errors.As,
//   and individual checks with errors.Is against the sentinels below.
//
//------------------------------------------------------------------------------

package policy

import (
	"errors"
	"net/http"
)

// Sentinels, one per gate check.
var (
	ErrContentType = errors.New("content type is not JSON")
	ErrOrigin      = errors.New("origin or referer does not match site")
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrTooLarge    = errors.New("request body too large")
	ErrEmptyBody   = errors.New("request body is empty")
	ErrMalformed   = errors.New("request body is not valid JSON")
	ErrNotObject   = errors.New("request body is not a JSON object")
)

// Rejection is a policy failure that maps to a 4xx response.
type Rejection struct {
	Status  int
	Message string
	Reason  string
	Err     error
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return r.Reason + ": " + r.Err.Error()
	}
	return r.Reason
}

func (r *Rejection) Unwrap() error { return r.Err }

// AsRejection reports whether err is (or wraps) a *Rejection.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

func reject(status int, reason, msg string, err error) *Rejection {
	return &Rejection{Status: status, Message: msg, Reason: reason, Err: err}
}

func rejContentType() *Rejection {
	return reject(http.StatusBadRequest, "content_type", "Invalid content type. Expected application/json.", ErrContentType)
}

func rejOrigin() *Rejection {
	return reject(http.StatusForbidden, "origin", "Invalid request origin", ErrOrigin)
}

func rejRateLimited() *Rejection {
	return reject(http.StatusTooManyRequests, "rate_limit", "Too many requests. Please try again later.", ErrRateLimited)
}

func rejTooLarge() *Rejection {
	return reject(http.StatusRequestEntityTooLarge, "body_size", "Request body too large", ErrTooLarge)
}

func rejEmpty() *Rejection {
	return reject(http.StatusBadRequest, "empty_body", "Request body is empty", ErrEmptyBody)
}

func rejMalformed(cause error) *Rejection {
	return reject(http.StatusBadRequest, "malformed_json", "Invalid JSON format", errors.Join(ErrMalformed, cause))
}

func rejNotObject() *Rejection {
	return reject(http.StatusBadRequest, "not_object", "Invalid request format", ErrNotObject)
}
