// internal/intake/validate.go
//
// Intake – conditional validation and normalization.
//
// Context
//   Validate is pure and deterministic: given the same Raw input and the same
//   clock reading it returns the same Result.  It never performs I/O.
//
// Workflow
//   •  The safety screen is checked first.  An affirmative answer
//      short-circuits everything else and yields SafetyOverride.
//   •  Every FieldDef is then evaluated in schema order.  Inactive fields are
//      skipped and their values dropped.  Active fields are coerced,
//      sanitized, and checked; the clean value is recorded so later
//      conditions see validated siblings only.
//   •  One ErrorField per invalid field is collected.  Validation does not
//      stop at the first failure, so the form can flag every problem at once.
//   •  With no errors, the clean values are assembled into a Submission.
//
//------------------------------------------------------------------------------

package intake

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/sanitize"
)

// -----------------------------------------------------------------------------
// Input and error types
// -----------------------------------------------------------------------------

// Raw is an untrusted submission as decoded from JSON, or as held by the form
// controller.  Values are strings, string slices, or booleans; anything else
// is treated as absent.
type Raw map[string]any

// Values holds validated, clean values keyed by field name.
type Values map[string]any

// ErrorField describes a single validation failure so the form can render a
// field-level message.
type ErrorField struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ValidationError wraps []ErrorField and satisfies the error interface.
type ValidationError struct{ Fields []ErrorField }

func (ve ValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "intake validation failed"
	}
	return fmt.Sprintf("intake validation failed: %s: %s", ve.Fields[0].Name, ve.Fields[0].Message)
}

// Result is the outcome of Validate.  Exactly one of the following holds:
// SafetyOverride is true; Errors is non-empty; Submission is non-nil.
type Result struct {
	Submission     *Submission
	Errors         []ErrorField
	SafetyOverride bool
}

// Valid reports whether the submission may be accepted.
func (r Result) Valid() bool { return r.Submission != nil }

// First returns the first field error in schema order.
func (r Result) First() (ErrorField, bool) {
	if len(r.Errors) == 0 {
		return ErrorField{}, false
	}
	return r.Errors[0], true
}

// ErrorMap indexes the field errors by field name.
func (r Result) ErrorMap() map[string]string {
	if len(r.Errors) == 0 {
		return nil
	}
	m := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		m[e.Name] = e.Message
	}
	return m
}

// Err returns nil for a valid result and a ValidationError otherwise.  A
// safety override is reported as a single error on the safety field.
func (r Result) Err() error {
	switch {
	case r.SafetyOverride:
		return ValidationError{Fields: []ErrorField{{Name: FieldHarmThoughts, Message: CrisisMessage}}}
	case len(r.Errors) > 0:
		return ValidationError{Fields: r.Errors}
	default:
		return nil
	}
}

// -----------------------------------------------------------------------------
// Public API
// -----------------------------------------------------------------------------

var (
	dateRe      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	phoneCharRe = regexp.MustCompile(`^[\d\s\-()+.]+$`)
	emailRe     = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")
)

const (
	maxEmailLength = 254
	minPhoneDigits = 10
	dateLayout     = "2006-01-02"
)

// Validate checks raw against the schema.  now supplies both "today" for date
// bounds and the SubmittedAt stamp of the normalized record.
func (s *Schema) Validate(raw Raw, now time.Time) Result {
	if choiceValue(raw, FieldHarmThoughts) == Yes {
		return Result{SafetyOverride: true}
	}

	today := civilDate(now)
	clean := make(Values, len(s.Fields))
	var errs []ErrorField

	for i := range s.Fields {
		f := &s.Fields[i]
		if !f.Active(clean) {
			continue
		}
		val, present, msg := s.check(f, raw, today)
		if msg != "" {
			errs = append(errs, ErrorField{Name: f.Name, Message: msg})
			continue
		}
		if !present && f.Default != "" {
			clean[f.Name] = f.Default
			continue
		}
		if !present {
			if f.Required {
				errs = append(errs, ErrorField{Name: f.Name, Message: missingMsg(f)})
			}
			continue
		}
		clean[f.Name] = val
	}

	if len(errs) > 0 {
		return Result{Errors: errs}
	}
	return Result{Submission: buildSubmission(clean, now)}
}

// -----------------------------------------------------------------------------
// Field-level helpers
// -----------------------------------------------------------------------------

// check coerces and validates one active field.  It returns the clean value,
// whether a value was present, and a non-empty message when the value is
// present but invalid.
func (s *Schema) check(f *FieldDef, raw Raw, today time.Time) (any, bool, string) {
	switch f.Kind {
	case KindText:
		limit := s.MaxFieldLength
		if f.MaxLength > 0 {
			// Field-specific limits reject rather than truncate.
			limit = 0
		}
		val := sanitize.TextN(raw.String(f.Name), limit)
		if !f.Multiline {
			val = sanitize.Line(val)
		}
		if val == "" {
			return nil, false, ""
		}
		n := utf8.RuneCountInString(val)
		if f.MinLength > 0 && n < f.MinLength {
			return nil, true, lengthMsg(f.TooShort, "Must be at least %d characters.", f.MinLength)
		}
		if f.MaxLength > 0 && n > f.MaxLength {
			return nil, true, lengthMsg(f.TooLong, "Must be less than %d characters.", f.MaxLength)
		}
		return val, true, ""

	case KindDate:
		val := strings.TrimSpace(raw.String(f.Name))
		if val == "" {
			return nil, false, ""
		}
		if !validDate(val, today) {
			return nil, true, invalidMsg(f)
		}
		return val, true, ""

	case KindPhone:
		val := strings.TrimSpace(raw.String(f.Name))
		if val == "" {
			return nil, false, ""
		}
		if !phoneCharRe.MatchString(val) {
			return nil, true, invalidMsg(f)
		}
		if len(sanitize.Digits(val)) < minPhoneDigits {
			return nil, true, "Phone number must be at least 10 digits"
		}
		return sanitize.Phone(val), true, ""

	case KindEmail:
		val := strings.ToLower(strings.TrimSpace(raw.String(f.Name)))
		if val == "" {
			return nil, false, ""
		}
		if len(val) > maxEmailLength {
			return nil, true, "Email address is too long"
		}
		if !emailRe.MatchString(val) {
			return nil, true, invalidMsg(f)
		}
		return val, true, ""

	case KindChoice:
		val := choiceValue(raw, f.Name)
		if val == "" {
			return nil, false, ""
		}
		if !contains(f.Vocab, val) {
			// Out-of-vocabulary values are never echoed back.
			if f.Invalid == "" && f.Required {
				return nil, true, missingMsg(f)
			}
			return nil, true, invalidMsg(f)
		}
		return val, true, ""

	case KindMulti:
		var out []string
		for _, v := range raw.List(f.Name) {
			v = strings.TrimSpace(v)
			if contains(f.Vocab, v) && !contains(out, v) {
				out = append(out, v)
			}
		}
		if len(out) == 0 {
			return nil, false, ""
		}
		return out, true, ""

	case KindConsent:
		if !raw.Flag(f.Name) {
			return nil, false, ""
		}
		return true, true, ""

	default:
		return nil, true, fmt.Sprintf("Unsupported field kind %s.", f.Kind)
	}
}

// choiceValue is the normalized form of a single-choice answer.  The safety
// screen and the vocabulary check both read it, so a value accepted as "Yes"
// is always one that triggers the override.
func choiceValue(raw Raw, name string) string {
	return strings.TrimSpace(raw.String(name))
}

// validDate enforces YYYY-MM-DD, a real calendar day, and not after today.
func validDate(val string, today time.Time) bool {
	if !dateRe.MatchString(val) {
		return false
	}
	d, err := time.Parse(dateLayout, val)
	if err != nil {
		return false
	}
	return !d.After(today)
}

// civilDate maps t onto midnight UTC of its own calendar day, which is how
// parsed YYYY-MM-DD values are represented.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func lengthMsg(custom, format string, n int) string {
	if custom != "" {
		return custom
	}
	return fmt.Sprintf(format, n)
}

func missingMsg(f *FieldDef) string {
	if f.Missing != "" {
		return f.Missing
	}
	return "This field is required."
}

func invalidMsg(f *FieldDef) string {
	if f.Invalid != "" {
		return f.Invalid
	}
	return "Invalid input."
}

// -----------------------------------------------------------------------------
// Raw accessors
// -----------------------------------------------------------------------------

// String returns the value for name when it is a string, else "".
func (r Raw) String(name string) string {
	s, _ := r[name].(string)
	return s
}

// List returns the string members of the value for name.  Non-string members
// are dropped; a non-list value yields nil.
func (r Raw) List(name string) []string {
	switch v := r[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Flag returns the truthiness of the value for name: true, non-empty strings,
// non-zero numbers, and any list or object count as true.
func (r Raw) Flag(name string) bool {
	switch v := r[name].(type) {
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case []any, []string, map[string]any:
		return true
	default:
		return false
	}
}
