// internal/sanitize/sanitize.go
//
// Intake – free-text sanitation.
//
// Context
//   Every free-text answer is passed through Text before it lands in the
//   normalized submission.  The stored value is later used as plain text
//   (subject lines, SMS bodies, logs) and as HTML content (notification
//   e-mail), so sanitation strips dangerous constructs outright.  HTML
//   escaping at render time is a separate, second layer.
//
// Rules
//   •  Tags (`<…>`) are removed, then any stray `<`, `>`, `"`, or backtick.
//   •  `javascript:` scheme prefixes are removed (case-insensitive).
//   •  Inline handler lookalikes (`onclick=`, `onerror =`) are removed.
//   •  The result is trimmed and truncated to a maximum rune count.
//   •  Line additionally flattens single-line answers, so control
//      characters never reach a subject line or SMS body.
//
//   Removal repeats until nothing changes, so nested payloads such as
//   `javajavascript:script:` cannot reassemble themselves.  This also makes
//   Text idempotent: Text(Text(x)) == Text(x).
//
//------------------------------------------------------------------------------

package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLength is the default truncation limit for free-text answers.
const MaxLength = 5000

var (
	tagRe     = regexp.MustCompile(`<[^>]*>`)
	schemeRe  = regexp.MustCompile(`(?i)javascript:`)
	handlerRe = regexp.MustCompile(`(?i)on\w+\s*=`)
	strayRe   = regexp.MustCompile("[<>\"`]")
)

// Text sanitizes s and truncates it to MaxLength runes.
func Text(s string) string { return TextN(s, MaxLength) }

// TextN sanitizes s and truncates it to max runes.  max <= 0 disables
// truncation.
func TextN(s string, max int) string {
	out := s
	for {
		next := tagRe.ReplaceAllString(out, "")
		next = schemeRe.ReplaceAllString(next, "")
		next = handlerRe.ReplaceAllString(next, "")
		next = strayRe.ReplaceAllString(next, "")
		next = strings.ReplaceAll(next, "\x00", "")
		if next == out {
			break
		}
		out = next
	}

	out = strings.TrimSpace(out)
	if max > 0 && utf8.RuneCountInString(out) > max {
		out = strings.TrimSpace(truncate(out, max))
	}
	return out
}

// truncate cuts s after n runes without splitting a multi-byte sequence.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Line flattens s to a single line.  Every run of control characters
// (CR, LF, tab, and the rest of C0 plus DEL) and surrounding spaces becomes
// one space.  Used for answers that end up in subject lines and SMS bodies.
func Line(s string) string {
	var b strings.Builder
	pendingSpace := false
	for _, r := range s {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			pendingSpace = true
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// Digits returns only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Phone keeps digits, spaces, and the punctuation people type in phone
// numbers.  Everything else is dropped.
func Phone(s string) string {
	var b strings.Builder
	for _, r := range Text(s) {
		switch {
		case r >= '0' && r <= '9', r == '+', r == '-', r == '(', r == ')', r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
