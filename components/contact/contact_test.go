// components/contact/contact_test.go
//
// End-to-end tests for the intake endpoint.  The gate, schema, and
// component are real; only notification transport is faked.
//
// Run: go test ./components/contact -v

package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/component"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/intake"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/intake/intaketest"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/notify"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/policy"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/ratelimit"
)

const site = "https://www.findyourlightpsychiatry.org"

type fakeDispatcher struct {
	mu           sync.Mutex
	practiceErr  error
	practice     []*intake.Submission
	confirmation []*intake.Submission
	ctxErr       error
}

func (f *fakeDispatcher) SendPracticeNotification(ctx context.Context, sub *intake.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.practice = append(f.practice, sub)
	f.ctxErr = ctx.Err()
	return f.practiceErr
}

func (f *fakeDispatcher) SendConfirmationNotification(_ context.Context, sub *intake.Submission) notify.ConfirmationResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmation = append(f.confirmation, sub)
	return notify.ConfirmationFailed
}

func (f *fakeDispatcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.practice) + len(f.confirmation)
}

type setup struct {
	prod    bool
	dev     bool
	limiter ratelimit.Limiter
	maxBody int64
}

func newServer(t *testing.T, s setup) (http.Handler, *fakeDispatcher) {
	t.Helper()
	gate, err := policy.New(policy.Options{
		Production:   s.prod,
		SiteURL:      site,
		Limiter:      s.limiter,
		MaxBodyBytes: s.maxBody,
		Log:          zap.NewNop().Sugar(),
	})
	if err != nil {
		t.Fatalf("policy.New: %v", err)
	}
	fd := &fakeDispatcher{}
	c := &Comp{}
	err = c.Init(component.Deps{
		Dev:        s.dev,
		Schema:     intake.DefaultSchema(),
		Gate:       gate,
		Dispatcher: fd,
		Log:        zap.NewNop().Sugar(),
		Now:        func() time.Time { return intaketest.Now },
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return c.Routes(), fd
}

func postJSON(t *testing.T, h http.Handler, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var raw string
	switch b := body.(type) {
	case string:
		raw = b
	default:
		enc, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		raw = string(enc)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "198.51.100.23")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %q", rec.Body.String())
	}
	return rec, out
}

func TestScenarioA_Accepted(t *testing.T) {
	h, fd := newServer(t, setup{})
	rec, out := postJSON(t, h, intaketest.Valid(), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %v", rec.Code, out)
	}
	if out["success"] != true || out["message"] != MsgAccepted {
		t.Errorf("body = %v", out)
	}
	if len(fd.practice) != 1 || len(fd.confirmation) != 1 {
		t.Fatalf("practice=%d confirmation=%d", len(fd.practice), len(fd.confirmation))
	}
	sub := fd.practice[0]
	if sub.Name != "John Doe" || sub.ContactMethod != "Email" || !sub.SubmittedAt.Equal(intaketest.Now) {
		t.Errorf("normalized record = %+v", sub)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
}

func TestScenarioB_EmptyName(t *testing.T) {
	h, fd := newServer(t, setup{})
	rec, out := postJSON(t, h, intaketest.With(map[string]any{"name": ""}), nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	fields, _ := out["fields"].(map[string]any)
	if _, ok := fields["name"]; !ok {
		t.Errorf("fields = %v, want name", out["fields"])
	}
	if out["error"] != fields["name"] {
		t.Errorf("error %q is not the name message", out["error"])
	}
	if fd.calls() != 0 {
		t.Error("dispatch attempted for invalid submission")
	}
}

func TestScenarioC_SafetyOverride(t *testing.T) {
	h, fd := newServer(t, setup{})
	// Other fields are broken too; the override still wins.
	rec, out := postJSON(t, h, intaketest.With(map[string]any{"harmThoughts": "Yes", "email": "nope"}), nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if out["error"] != intake.CrisisMessage {
		t.Errorf("error = %v", out["error"])
	}
	if _, ok := out["fields"]; ok {
		t.Error("safety response carries field errors")
	}
	if fd.calls() != 0 {
		t.Error("safety override reached the dispatcher")
	}
}

func TestSafetyOverride_PaddedAnswer(t *testing.T) {
	for _, v := range []string{" Yes", "Yes ", "Yes\n"} {
		h, fd := newServer(t, setup{})
		rec, out := postJSON(t, h, intaketest.With(map[string]any{"harmThoughts": v}), nil)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("harmThoughts %q: status = %d", v, rec.Code)
		}
		if out["error"] != intake.CrisisMessage {
			t.Errorf("harmThoughts %q: error = %v", v, out["error"])
		}
		if fd.calls() != 0 {
			t.Errorf("harmThoughts %q: reached the dispatcher", v)
		}
	}
}

func TestScenarioD_SpravatoFollowUp(t *testing.T) {
	h, fd := newServer(t, setup{})
	rec, out := postJSON(t, h, intaketest.With(map[string]any{
		"treatmentTypes":    []string{intake.Spravato},
		"hasTransportation": "Yes",
	}), nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	fields, _ := out["fields"].(map[string]any)
	if _, ok := fields["triedAntidepressants"]; !ok {
		t.Errorf("fields = %v, want triedAntidepressants", fields)
	}
	if fd.calls() != 0 {
		t.Error("dispatch attempted")
	}
}

func TestScenarioE_Honeypot(t *testing.T) {
	h, fd := newServer(t, setup{})
	rec, out := postJSON(t, h, intaketest.With(map[string]any{"website": "http://spam.example"}), nil)

	if rec.Code != http.StatusOK || out["success"] != true || out["message"] != MsgAccepted {
		t.Fatalf("status = %d, body %v", rec.Code, out)
	}
	if fd.calls() != 0 {
		t.Error("honeypot submission reached the dispatcher")
	}

	// Trapped requests are not even validated.
	rec, _ = postJSON(t, h, map[string]any{"website": "x"}, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("trapped invalid body: status %d", rec.Code)
	}
}

func TestScenarioF_PracticeFailure(t *testing.T) {
	h, fd := newServer(t, setup{})
	fd.practiceErr = errors.New("transport down")

	rec, out := postJSON(t, h, intaketest.Valid(), nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if out["error"] != MsgDispatchFailed {
		t.Errorf("error = %v", out["error"])
	}
	if _, ok := out["details"]; ok {
		t.Error("details leaked outside development")
	}
	if len(fd.confirmation) != 0 {
		t.Error("confirmation attempted after practice failure")
	}

	dev, fd := newServer(t, setup{dev: true})
	fd.practiceErr = errors.New("transport down")
	_, out = postJSON(t, dev, intaketest.Valid(), nil)
	if out["details"] != "transport down" {
		t.Errorf("dev details = %v", out["details"])
	}
}

func TestPracticeNotification_DetachedContext(t *testing.T) {
	h, fd := newServer(t, setup{})
	enc, _ := json.Marshal(intaketest.Valid())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(string(enc))).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if len(fd.practice) != 1 {
		t.Fatalf("practice calls = %d", len(fd.practice))
	}
	if fd.ctxErr != nil {
		t.Errorf("practice context cancelled: %v", fd.ctxErr)
	}
}

func TestPolicyResponses(t *testing.T) {
	limiter, err := ratelimit.NewMemoryStore(ratelimit.Policy{Limit: 1, Window: time.Minute})
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	h, fd := newServer(t, setup{prod: true, limiter: limiter, maxBody: 4096})

	// 403: foreign origin.
	rec, out := postJSON(t, h, intaketest.Valid(), map[string]string{"Origin": "https://evil.example"})
	if rec.Code != http.StatusForbidden || out["error"] != "Invalid request origin" {
		t.Errorf("origin: %d %v", rec.Code, out)
	}

	// 413: body over the bound.  Checked after the limiter, so use a fresh IP.
	big := map[string]any{"reasonForCare": strings.Repeat("x", 5000)}
	rec, _ = postJSON(t, h, big, map[string]string{"X-Forwarded-For": "198.51.100.99"})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("size: %d", rec.Code)
	}

	// 200 then 429 from the same source.
	hdr := map[string]string{"Origin": site}
	if rec, out = postJSON(t, h, intaketest.Valid(), hdr); rec.Code != http.StatusOK {
		t.Fatalf("first request: %d %v", rec.Code, out)
	}
	rec, out = postJSON(t, h, intaketest.Valid(), hdr)
	if rec.Code != http.StatusTooManyRequests || out["error"] != "Too many requests. Please try again later." {
		t.Errorf("rate limit: %d %v", rec.Code, out)
	}
	if len(fd.practice) != 1 {
		t.Errorf("practice calls = %d", len(fd.practice))
	}
}

func TestMalformedBody(t *testing.T) {
	h, _ := newServer(t, setup{})
	rec, out := postJSON(t, h, `{"name":`, nil)
	if rec.Code != http.StatusBadRequest || out["error"] != "Invalid JSON format" {
		t.Fatalf("status %d body %v", rec.Code, out)
	}
	if _, ok := out["details"]; ok {
		t.Error("details outside development")
	}

	dev, _ := newServer(t, setup{dev: true})
	_, out = postJSON(t, dev, `{"name":`, nil)
	if d, _ := out["details"].(string); d == "" {
		t.Error("dev response lacks details")
	}

	_, out = postJSON(t, h, `[1,2,3]`, nil)
	if out["error"] != "Invalid request format" {
		t.Errorf("array body: %v", out)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newServer(t, setup{})
	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(m, "/api/contact", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: status %d", m, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), MsgMethodNotAllowed) {
			t.Errorf("%s: body %q", m, rec.Body.String())
		}
	}
}

func TestFormPage(t *testing.T) {
	h, _ := newServer(t, setup{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contact/form", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`id="fld-name"`, `name="website"`, `action="/api/contact"`} {
		if !strings.Contains(body, want) {
			t.Errorf("form page missing %s", want)
		}
	}
}

func TestInit_RequiresCollaborators(t *testing.T) {
	if err := (&Comp{}).Init(component.Deps{}); err == nil {
		t.Fatal("expected error")
	}
}
