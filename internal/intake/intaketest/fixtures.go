// internal/intake/intaketest/fixtures.go
//
// Shared fixtures for tests that need a well-formed intake submission.
//
//------------------------------------------------------------------------------

package intaketest

import (
	"time"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/intake"
)

// Now is a fixed clock reading used as "today" in tests.
var Now = time.Date(2025, time.June, 1, 15, 4, 5, 0, time.UTC)

// Valid returns a minimal submission that passes validation.  Each call
// returns a fresh map so callers may mutate it.
func Valid() intake.Raw {
	return intake.Raw{
		"name":                     "John Doe",
		"dob":                      "1990-01-01",
		"phone":                    "2065551234",
		"email":                    "john@example.com",
		"locationPreference":       "Queen Anne",
		"hasInsurance":             "No",
		"treatmentTypes":           []any{"Medication Management"},
		"reasonForCare":            "Test message for care",
		"hasMentalHealthDiagnosis": "No",
		"takingMedications":        "No",
		"hasBeenHospitalized":      "No",
		"harmThoughts":             "No",
		"consent1":                 true,
		"consent2":                 true,
	}
}

// With returns a copy of Valid with the given overrides applied.  A nil
// value deletes the key.
func With(overrides map[string]any) intake.Raw {
	r := Valid()
	for k, v := range overrides {
		if v == nil {
			delete(r, k)
			continue
		}
		r[k] = v
	}
	return r
}
