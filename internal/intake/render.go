// internal/intake/render.go
//
// Intake – HTML renderer for the questionnaire.
//
// Context
//   The form markup is derived from the same FieldDef table the validators
//   use, so the fields a browser shows are exactly the fields the server
//   checks.  HTML5 attributes (required, minlength, maxlength) mirror the
//   schema rules for immediate feedback; the authoritative checks remain
//   Schema.Validate on both sides.
//
// Workflow
//   •  RenderForm writes each FieldDef via writeField in schema order.
//   •  Conditional fields carry data-when="field=value" (or field~value for
//      multi-choice membership) and start hidden when their conditions do
//      not hold against the prefill.  Required is only emitted on fields
//      that are active at render time.
//   •  The honeypot input is appended last, visually hidden and skipped by
//      assistive technology.
//   •  The caller receives template.HTML so the surrounding template does not
//      double-escape the markup.
//
// Style
//   Each input gets id="fld-{name}" and is wrapped in <div class="form-field">.
//
//------------------------------------------------------------------------------

package intake

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strconv"
	"strings"
)

// RenderForm returns the questionnaire markup.  prefill may be nil.
func (s *Schema) RenderForm(prefill Raw) (template.HTML, error) {
	// Active is evaluated against the prefill as-is; the browser re-evaluates
	// on every change.
	vals := make(Values, len(prefill))
	for k, v := range prefill {
		switch x := v.(type) {
		case string:
			vals[k] = x
		case []string:
			vals[k] = x
		case []any:
			vals[k] = prefill.List(k)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(`<div class="intake-form">` + "\n")
	for i := range s.Fields {
		f := &s.Fields[i]
		if err := s.writeField(&buf, f, prefill, f.Active(vals)); err != nil {
			return "", err
		}
	}
	buf.WriteString(`<div class="form-field hp" aria-hidden="true" style="position:absolute;left:-10000px">` + "\n")
	buf.WriteString(`<input id="fld-` + HoneypotField + `" name="` + HoneypotField + `" type="text" tabindex="-1" autocomplete="off" value="">` + "\n")
	buf.WriteString(`</div>` + "\n")
	buf.WriteString(`</div>`)
	return template.HTML(buf.String()), nil
}

func (s *Schema) writeField(buf *bytes.Buffer, f *FieldDef, prefill Raw, active bool) error {
	id := "fld-" + html.EscapeString(f.Name)
	name := html.EscapeString(f.Name)

	buf.WriteString(`<div class="form-field"`)
	if len(f.When) > 0 {
		buf.WriteString(` data-when="` + html.EscapeString(whenAttr(f.When)) + `"`)
		if !active {
			buf.WriteString(` hidden`)
		}
	}
	buf.WriteString(`>` + "\n")

	required := ""
	if f.Required && active {
		required = ` required`
	}
	val := prefill.String(f.Name)

	switch f.Kind {
	case KindText, KindDate, KindPhone, KindEmail:
		buf.WriteString(`<label for="` + id + `">` + html.EscapeString(f.Label) + `</label>` + "\n")
		max := f.MaxLength
		if max == 0 {
			max = s.MaxFieldLength
		}
		lengths := ""
		if f.MinLength > 0 {
			lengths += ` minlength="` + strconv.Itoa(f.MinLength) + `"`
		}
		if max > 0 {
			lengths += ` maxlength="` + strconv.Itoa(max) + `"`
		}
		if f.Multiline {
			buf.WriteString(`<textarea id="` + id + `" name="` + name + `"` + required + lengths + `>`)
			buf.WriteString(html.EscapeString(val))
			buf.WriteString(`</textarea>` + "\n")
			break
		}
		buf.WriteString(`<input id="` + id + `" name="` + name + `" type="` + inputType(f.Kind) + `"` + required + lengths)
		if val != "" {
			buf.WriteString(` value="` + html.EscapeString(val) + `"`)
		}
		buf.WriteString(`>` + "\n")

	case KindChoice:
		buf.WriteString(`<label for="` + id + `">` + html.EscapeString(f.Label) + `</label>` + "\n")
		if val == "" {
			val = f.Default
		}
		buf.WriteString(`<select id="` + id + `" name="` + name + `"` + required + `>` + "\n")
		if f.Default == "" {
			buf.WriteString(`<option value="">Select…</option>` + "\n")
		}
		for _, opt := range f.Vocab {
			sel := ""
			if val == opt {
				sel = ` selected`
			}
			buf.WriteString(`<option value="` + html.EscapeString(opt) + `"` + sel + `>` + html.EscapeString(opt) + `</option>` + "\n")
		}
		buf.WriteString(`</select>` + "\n")

	case KindMulti:
		picked := prefill.List(f.Name)
		buf.WriteString(`<fieldset id="` + id + `"><legend>` + html.EscapeString(f.Label) + `</legend>` + "\n")
		for i, opt := range f.Vocab {
			optID := fmt.Sprintf("%s-%d", id, i)
			checked := ""
			if contains(picked, opt) {
				checked = ` checked`
			}
			buf.WriteString(`<div class="checkbox-option">` + "\n")
			buf.WriteString(`<input id="` + optID + `" name="` + name + `" type="checkbox" value="` + html.EscapeString(opt) + `"` + checked + `>` + "\n")
			buf.WriteString(`<label for="` + optID + `">` + html.EscapeString(opt) + `</label>` + "\n")
			buf.WriteString(`</div>` + "\n")
		}
		buf.WriteString(`</fieldset>` + "\n")

	case KindConsent:
		checked := ""
		if prefill.Flag(f.Name) {
			checked = ` checked`
		}
		buf.WriteString(`<input id="` + id + `" name="` + name + `" type="checkbox" value="true"` + checked + required + `>` + "\n")
		buf.WriteString(`<label for="` + id + `">` + html.EscapeString(f.Label) + `</label>` + "\n")

	default:
		return fmt.Errorf("writeField: unsupported kind %s for field %s", f.Kind, f.Name)
	}

	// Placeholder span for error messages (populated client-side).
	buf.WriteString(`<span class="error" aria-live="polite"></span>` + "\n")
	buf.WriteString(`</div>` + "\n")
	return nil
}

func inputType(k Kind) string {
	switch k {
	case KindDate:
		return "date"
	case KindPhone:
		return "tel"
	case KindEmail:
		return "email"
	default:
		return "text"
	}
}

// whenAttr encodes conditions as "a=b;c~d".
func whenAttr(conds []Condition) string {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		if c.Contains != "" {
			parts = append(parts, c.Field+"~"+c.Contains)
			continue
		}
		parts = append(parts, c.Field+"="+c.Equals)
	}
	return strings.Join(parts, ";")
}
