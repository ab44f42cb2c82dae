// internal/formctl/state.go
//
// Intake – form state and reducer.
//
// Context
//   The form controller owns the answers a patient is typing.  State is a
//   value; every change goes through Reduce, which returns a new State and
//   never mutates its input.  Events are a closed set of tagged structs.
//
// Cleanup
//   When a trigger field changes, every dependent field (per
//   Schema.Dependents) that is no longer active is reset to its zero value
//   and its error cleared.  Dependents that remain active keep their
//   answers.  This yields, for example:
//
//     •  hasInsurance → "No"          clears provider, member ID, own-name,
//                                      and subscriber fields.
//     •  hasInsurance → "Yes"         clears selfPayOption.
//     •  insuranceInOwnName → "Yes"   clears the subscriber fields.
//     •  Spravato unchecked           clears the two Spravato answers.
//
//   Any change to a field also clears that field's own error.
//
//------------------------------------------------------------------------------

package formctl

import (
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/intake"
)

// Status is the submit life-cycle of the form.
type Status int

const (
	StatusIdle Status = iota
	StatusSubmitting
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSubmitting:
		return "submitting"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is one snapshot of the form.
type State struct {
	Values  intake.Raw        // string, []string, or bool per field
	Errors  map[string]string // field name → message
	Status  Status
	Message string // banner text after a submit attempt
}

// Event is a user or submit action.  The set is closed.
type Event interface{ event() }

// FieldChanged sets a single-valued field.  Value is a string, or a bool for
// consent fields.
type FieldChanged struct {
	Field string
	Value any
}

// ChoiceToggled checks or unchecks one option of a multi-choice field.
type ChoiceToggled struct {
	Field   string
	Option  string
	Checked bool
}

// SubmitStarted marks the form busy.
type SubmitStarted struct{}

// SubmitFinished records the outcome of a submit.  A success resets the
// answers.
type SubmitFinished struct{ Outcome Outcome }

// Reset restores the initial state.
type Reset struct{}

func (FieldChanged) event()   {}
func (ChoiceToggled) event()  {}
func (SubmitStarted) event()  {}
func (SubmitFinished) event() {}
func (Reset) event()          {}

// Initial returns an empty form.  Every schema field is present with its
// zero value so the serialized payload always carries the full key set.
func (c *Controller) Initial() State {
	vals := make(intake.Raw, len(c.schema.Fields)+1)
	for _, f := range c.schema.Fields {
		vals[f.Name] = c.zero(f.Name)
	}
	vals[intake.HoneypotField] = ""
	return State{Values: vals, Errors: map[string]string{}}
}

// Reduce applies e to s.
func (c *Controller) Reduce(s State, e Event) State {
	next := s.clone()

	switch ev := e.(type) {
	case FieldChanged:
		f, ok := c.schema.Field(ev.Field)
		if !ok || f.Kind == intake.KindMulti {
			return next
		}
		prev := next.Values[ev.Field]
		next.Values[ev.Field] = ev.Value
		delete(next.Errors, ev.Field)
		if !same(prev, ev.Value) {
			c.cleanup(&next, ev.Field)
		}

	case ChoiceToggled:
		f, ok := c.schema.Field(ev.Field)
		if !ok || f.Kind != intake.KindMulti {
			return next
		}
		list := next.Values.List(ev.Field)
		next.Values[ev.Field] = toggle(list, ev.Option, ev.Checked)
		delete(next.Errors, ev.Field)
		c.cleanup(&next, ev.Field)

	case SubmitStarted:
		next.Status = StatusSubmitting
		next.Message = ""

	case SubmitFinished:
		if ev.Outcome.OK {
			next = c.Initial()
			next.Status = StatusSucceeded
			next.Message = ev.Outcome.Message
			return next
		}
		next.Status = StatusFailed
		next.Message = ev.Outcome.Message
		for k, v := range ev.Outcome.Fields {
			next.Errors[k] = v
		}

	case Reset:
		return c.Initial()
	}
	return next
}

// cleanup resets every dependent of trigger that is no longer active.
func (c *Controller) cleanup(s *State, trigger string) {
	deps := c.deps[trigger]
	if len(deps) == 0 {
		return
	}
	// Dependents are in schema order, so a chained dependent sees its own
	// trigger already reset.
	for _, name := range deps {
		f, _ := c.schema.Field(name)
		if f.Active(values(s.Values)) {
			continue
		}
		s.Values[name] = c.zero(name)
		delete(s.Errors, name)
	}
}

func (c *Controller) zero(name string) any {
	f, _ := c.schema.Field(name)
	switch f.Kind {
	case intake.KindMulti:
		return []string{}
	case intake.KindConsent:
		return false
	default:
		if f.Default != "" {
			return f.Default
		}
		return ""
	}
}

// values projects the non-empty answers onto intake.Values so activation
// predicates can be evaluated.
func values(r intake.Raw) intake.Values {
	out := make(intake.Values, len(r))
	for k, v := range r {
		switch x := v.(type) {
		case string:
			if x != "" {
				out[k] = x
			}
		case []string:
			out[k] = x
		}
	}
	return out
}

// same compares scalar answers.  Anything else counts as a change.
func same(a, b any) bool {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	default:
		return false
	}
}

func toggle(list []string, opt string, on bool) []string {
	out := make([]string, 0, len(list)+1)
	seen := false
	for _, v := range list {
		if v == opt {
			seen = true
			if !on {
				continue
			}
		}
		out = append(out, v)
	}
	if on && !seen {
		out = append(out, opt)
	}
	return out
}

func (s State) clone() State {
	vals := make(intake.Raw, len(s.Values))
	for k, v := range s.Values {
		if l, ok := v.([]string); ok {
			v = append([]string{}, l...)
		}
		vals[k] = v
	}
	errs := make(map[string]string, len(s.Errors))
	for k, v := range s.Errors {
		errs[k] = v
	}
	return State{Values: vals, Errors: errs, Status: s.Status, Message: s.Message}
}
