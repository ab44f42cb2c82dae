// internal/sanitize/sanitize_test.go
//
// Unit-tests for free-text sanitation.
//
// Run: go test ./internal/sanitize -v

package sanitize

import (
	"strings"
	"testing"
	"testing/quick"
	"unicode/utf8"
)

func TestText_StripsDangerousConstructs(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  John Doe  ", "John Doe"},
		{"<script>alert(1)</script>hello", "alert(1)hello"},
		{"<b>bold</b> text", "bold text"},
		{"click javascript:alert(1)", "click alert(1)"},
		{"JaVaScRiPt:void(0)", "void(0)"},
		{`img onerror=alert(1)`, "img alert(1)"},
		{`x onClick  = y`, "x  y"},
		{"javajavascript:script:go", "go"},
		{"oonclick=nclick=x", "x"},
		{`say "hi" and ` + "`tick`", "say hi and tick"},
		{"a < b > c", "a  c"},
	}
	for _, c := range cases {
		if got := Text(c.in); got != c.want {
			t.Errorf("Text(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTextN_Truncates(t *testing.T) {
	in := strings.Repeat("é", 20)
	got := TextN(in, 7)
	if utf8.RuneCountInString(got) != 7 {
		t.Fatalf("rune count = %d, want 7", utf8.RuneCountInString(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
}

func TestText_DefaultLimit(t *testing.T) {
	got := Text(strings.Repeat("a", MaxLength+50))
	if len(got) != MaxLength {
		t.Fatalf("len = %d, want %d", len(got), MaxLength)
	}
}

func TestLine_FlattensControlCharacters(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"John Doe", "John Doe"},
		{"John\r\nBcc: x@example.com", "John Bcc: x@example.com"},
		{"a\tb\x0bc\x7fd", "a b c d"},
		{"  a \n\n b  ", "a b"},
		{"\r\n", ""},
	}
	for _, c := range cases {
		if got := Line(c.in); got != c.want {
			t.Errorf("Line(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	f := func(s string) bool {
		once := Line(s)
		return Line(once) == once && !strings.ContainsAny(once, "\r\n")
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestText_Idempotent(t *testing.T) {
	f := func(s string) bool {
		once := TextN(s, 64)
		return TextN(once, 64) == once
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 2000}); err != nil {
		t.Fatal(err)
	}

	tricky := []string{
		"<<a>script>",
		"on on=click=",
		"java\x00script:x",
		"  <i> </i>  padded  ",
		strings.Repeat("x ", 40),
	}
	for _, s := range tricky {
		once := TextN(s, 64)
		if twice := TextN(once, 64); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", s, once, twice)
		}
	}
}

func TestText_NoDelimitersRemain(t *testing.T) {
	f := func(s string) bool {
		out := Text(s)
		return !strings.ContainsAny(out, "<>") &&
			!strings.Contains(strings.ToLower(out), "javascript:") &&
			!handlerRe.MatchString(out)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestPhone(t *testing.T) {
	if got := Phone("(206) 555-1234 ext.<b>"); got != "(206) 555-1234" {
		t.Fatalf("Phone = %q", got)
	}
	if got := Digits("+1 (206) 555.1234"); got != "12065551234" {
		t.Fatalf("Digits = %q", got)
	}
}
