// internal/policy/gate_test.go
//
// Unit-tests for the request policy gate.
//
// Run: go test ./internal/policy -v

package policy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) CheckAndConsume(_ context.Context, key string) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

func newGate(t *testing.T, prod bool, lim *fakeLimiter) *Gate {
	t.Helper()
	opts := Options{
		Production:   prod,
		SiteURL:      "https://www.findyourlightpsychiatry.org",
		MaxBodyBytes: 64,
		Log:          zap.NewNop().Sugar(),
	}
	if lim != nil {
		opts.Limiter = lim
	}
	g, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func post(body string, headers map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	for k, v := range headers {
		if v == "" {
			r.Header.Del(k)
			continue
		}
		r.Header.Set(k, v)
	}
	return r
}

func wantRejection(t *testing.T, err error, status int, sentinel error) *Rejection {
	t.Helper()
	rej, ok := AsRejection(err)
	if !ok {
		t.Fatalf("expected *Rejection, got %v", err)
	}
	if rej.Status != status {
		t.Errorf("status = %d, want %d", rej.Status, status)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("error %v does not wrap %v", err, sentinel)
	}
	return rej
}

func TestCheck_ContentType(t *testing.T) {
	g := newGate(t, false, nil)
	_, err := g.Check(post(`{}`, map[string]string{"Content-Type": "text/plain"}))
	rej := wantRejection(t, err, http.StatusBadRequest, ErrContentType)
	if rej.Message != "Invalid content type. Expected application/json." {
		t.Errorf("message = %q", rej.Message)
	}

	if _, err := g.Check(post(`{}`, map[string]string{"Content-Type": "application/json; charset=utf-8"})); err != nil {
		t.Fatalf("charset parameter rejected: %v", err)
	}
}

func TestCheck_Origin(t *testing.T) {
	g := newGate(t, true, nil)
	cases := []struct {
		name    string
		headers map[string]string
		ok      bool
	}{
		{"apex origin", map[string]string{"Origin": "https://findyourlightpsychiatry.org"}, true},
		{"www origin", map[string]string{"Origin": "https://www.findyourlightpsychiatry.org"}, true},
		{"no headers", nil, true},
		{"unparseable origin", map[string]string{"Origin": "::not a url"}, true},
		{"foreign origin", map[string]string{"Origin": "https://evil.example"}, false},
		{"foreign referer", map[string]string{"Referer": "https://evil.example/contact"}, false},
		{"bad origin good referer", map[string]string{"Origin": "https://evil.example", "Referer": "https://www.findyourlightpsychiatry.org/contact"}, true},
		{"null origin foreign referer", map[string]string{"Origin": "null", "Referer": "http://evil.example/"}, false},
	}
	for _, c := range cases {
		_, err := g.Check(post(`{}`, c.headers))
		if c.ok && err != nil {
			t.Errorf("%s: unexpected rejection %v", c.name, err)
		}
		if !c.ok {
			if err == nil {
				t.Errorf("%s: expected rejection", c.name)
				continue
			}
			wantRejection(t, err, http.StatusForbidden, ErrOrigin)
		}
	}

	// Development skips the origin check entirely.
	dev := newGate(t, false, nil)
	if _, err := dev.Check(post(`{}`, map[string]string{"Origin": "https://evil.example"})); err != nil {
		t.Errorf("dev gate checked origin: %v", err)
	}
}

func TestCheck_RateLimit(t *testing.T) {
	lim := &fakeLimiter{allow: false}
	g := newGate(t, false, lim)

	_, err := g.Check(post(`{}`, nil))
	wantRejection(t, err, http.StatusTooManyRequests, ErrRateLimited)
	if len(lim.keys) != 1 || lim.keys[0] != "203.0.113.7" {
		t.Errorf("limiter keys = %v", lim.keys)
	}

	// Unknown source bypasses the limiter.
	lim.keys = nil
	if _, err := g.Check(post(`{}`, map[string]string{"X-Forwarded-For": ""})); err != nil {
		t.Fatalf("unknown source limited: %v", err)
	}
	if len(lim.keys) != 0 {
		t.Errorf("limiter consulted for unknown source")
	}

	// Backend failure fails open.
	failing := newGate(t, false, &fakeLimiter{err: errors.New("redis down")})
	if _, err := failing.Check(post(`{}`, nil)); err != nil {
		t.Fatalf("limiter error rejected request: %v", err)
	}
}

func TestCheck_BodySize(t *testing.T) {
	g := newGate(t, false, nil)
	big := `{"reasonForCare":"` + strings.Repeat("x", 100) + `"}`

	_, err := g.Check(post(big, nil))
	wantRejection(t, err, http.StatusRequestEntityTooLarge, ErrTooLarge)

	// Declared length alone is enough.
	r := post(`{}`, nil)
	r.ContentLength = 1 << 30
	_, err = g.Check(r)
	wantRejection(t, err, http.StatusRequestEntityTooLarge, ErrTooLarge)

	// Undeclared length is still bounded by the actual read.
	r = post(big, nil)
	r.ContentLength = -1
	_, err = g.Check(r)
	wantRejection(t, err, http.StatusRequestEntityTooLarge, ErrTooLarge)
}

func TestCheck_BodyShape(t *testing.T) {
	g := newGate(t, false, nil)
	cases := []struct {
		body     string
		sentinel error
		msg      string
	}{
		{"", ErrEmptyBody, "Request body is empty"},
		{"   \n ", ErrEmptyBody, "Request body is empty"},
		{"{", ErrMalformed, "Invalid JSON format"},
		{"[1,2]", ErrNotObject, "Invalid request format"},
		{"null", ErrNotObject, "Invalid request format"},
		{`"hi"`, ErrNotObject, "Invalid request format"},
	}
	for _, c := range cases {
		_, err := g.Check(post(c.body, nil))
		rej := wantRejection(t, err, http.StatusBadRequest, c.sentinel)
		if rej.Message != c.msg {
			t.Errorf("body %q: message %q, want %q", c.body, rej.Message, c.msg)
		}
	}
}

func TestCheck_Honeypot(t *testing.T) {
	g := newGate(t, false, nil)
	cases := []struct {
		body    string
		trapped bool
	}{
		{`{"name":"x"}`, false},
		{`{"website":""}`, false},
		{`{"website":"   "}`, false},
		{`{"website":"http://spam.example"}`, true},
		{`{"website":1}`, true},
	}
	for _, c := range cases {
		v, err := g.Check(post(c.body, nil))
		if err != nil {
			t.Fatalf("%s: %v", c.body, err)
		}
		if v.Trapped != c.trapped {
			t.Errorf("%s: trapped=%v, want %v", c.body, v.Trapped, c.trapped)
		}
	}
}

func TestNew_RequiresSiteHost(t *testing.T) {
	if _, err := New(Options{SiteURL: "not a url"}); err == nil {
		t.Fatal("expected error for site URL without host")
	}
}
