package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/intake"
)

const answers = `
name: John Doe
dob: 1990-01-01
phone: 2065551234
email: john@example.com
locationPreference: Queen Anne
hasInsurance: "No"
treatmentTypes:
  - Medication Management
reasonForCare: Test message for care
hasMentalHealthDiagnosis: "No"
takingMedications: "No"
hasBeenHospitalized: "No"
harmThoughts: "No"
consent1: true
consent2: true
`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "answers.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRun_ValidateOnly(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"-file", writeFile(t, answers), "-validate-only"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit %d, stdout=%q stderr=%q", code, out.String(), errOut.String())
	}
	if strings.TrimSpace(out.String()) != "valid" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestRun_SafetyOverride(t *testing.T) {
	body := strings.Replace(answers, `harmThoughts: "No"`, `harmThoughts: "Yes"`, 1)
	var out, errOut bytes.Buffer
	if code := run([]string{"-file", writeFile(t, body), "-validate-only"}, &out, &errOut); code != 1 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(out.String(), "988") {
		t.Errorf("crisis message missing: %q", out.String())
	}
}

func TestRun_Submit(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"Thank you for your request. We will contact you soon."}`))
	}))
	defer srv.Close()

	var out, errOut bytes.Buffer
	code := run([]string{"-file", writeFile(t, answers), "-endpoint", srv.URL}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit %d, stderr=%q", code, errOut.String())
	}
	if !strings.Contains(out.String(), "Thank you") {
		t.Errorf("stdout = %q", out.String())
	}
	if got["phone"] != "2065551234" {
		t.Errorf("phone sent as %#v", got["phone"])
	}
	if v, ok := got[intake.HoneypotField]; !ok || v != "" {
		t.Errorf("honeypot = %#v", v)
	}
}

func TestRun_Usage(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(nil, &out, &errOut); code != 2 {
		t.Errorf("no -file: exit %d", code)
	}
	if code := run([]string{"-file", filepath.Join(t.TempDir(), "missing.yaml")}, &out, &errOut); code != 2 {
		t.Errorf("missing file: exit %d", code)
	}
}
