// internal/intake/schema_test.go
//
// Unit-tests for the field table, vocabularies, and form renderer.
//
// Run: go test ./internal/intake -v

package intake

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDependents(t *testing.T) {
	deps := DefaultSchema().Dependents()

	want := map[string][]string{
		FieldHasInsurance: {
			FieldInsuranceProvider, FieldInsuranceMemberID, FieldInsuranceInOwnName,
			FieldSubscriberName, FieldSubscriberDOB, FieldSelfPayOption,
		},
		FieldInsuranceInOwnName:  {FieldSubscriberName, FieldSubscriberDOB},
		FieldTreatmentTypes:      {FieldTriedAntidepressants, FieldHasTransportation},
		FieldHasDiagnosis:        {FieldDiagnosisList},
		FieldTakingMedications:   {FieldMedicationsList},
		FieldHasBeenHospitalized: {FieldHospitalizationDetails},
	}
	if !reflect.DeepEqual(deps, want) {
		t.Fatalf("Dependents mismatch\n got: %v\nwant: %v", deps, want)
	}
}

func TestSchemaFieldLookup(t *testing.T) {
	s := DefaultSchema()
	f, ok := s.Field(FieldContactMethod)
	if !ok || f.Kind != KindChoice || f.Default != "Email" {
		t.Fatalf("contactMethod def = %+v", f)
	}
	if _, ok := s.Field(HoneypotField); ok {
		t.Fatalf("honeypot must not be a schema field")
	}
	seen := map[string]bool{}
	for _, f := range s.Fields {
		if seen[f.Name] {
			t.Fatalf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true
		if (f.Kind == KindChoice || f.Kind == KindMulti) && len(f.Vocab) == 0 {
			t.Errorf("field %q has no vocabulary", f.Name)
		}
		for _, c := range f.When {
			if _, ok := s.Field(c.Field); !ok {
				t.Errorf("field %q depends on unknown %q", f.Name, c.Field)
			}
		}
	}
}

func TestParseVocabulary_Rejects(t *testing.T) {
	good := string(defaultVocabulary)
	cases := map[string]string{
		"empty list":  strings.Replace(good, "times:\n  - \"Morning\"\n  - \"Afternoon\"\n  - \"Evening\"", "times: []", 1),
		"duplicate":   strings.Replace(good, `"Bellevue"`, `"Queen Anne"`, 1),
		"no spravato": strings.Replace(good, `"Spravato (Esketamine) Treatment"`, `"Ketamine"`, 1),
		"no yes":      strings.Replace(good, "yes_no:\n  - \"Yes\"", "yes_no:\n  - \"Si\"", 1),
		"broken yaml": "contact_methods: [",
	}
	for name, raw := range cases {
		if raw == good {
			t.Fatalf("%s: fixture did not change the file", name)
		}
		if _, err := ParseVocabulary([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadVocabulary_Override(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	raw := strings.Replace(string(defaultVocabulary), `"Bellevue"`, `"Capitol Hill"`, 1)
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	v, err := LoadVocabulary(path)
	if err != nil {
		t.Fatalf("LoadVocabulary: %v", err)
	}
	if !contains(v.Locations, "Capitol Hill") || contains(v.Locations, "Bellevue") {
		t.Fatalf("override not applied: %v", v.Locations)
	}

	s := NewSchema(v)
	f, _ := s.Field(FieldLocationPreference)
	if !reflect.DeepEqual(f.Vocab, v.Locations) {
		t.Errorf("schema not bound to override vocabulary")
	}

	if _, err := LoadVocabulary(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestRenderForm(t *testing.T) {
	s := DefaultSchema()
	out, err := s.RenderForm(Raw{
		FieldName:         `"><script>x</script>`,
		FieldHasInsurance: Yes,
	})
	if err != nil {
		t.Fatalf("RenderForm: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		`id="fld-name"`,
		`maxlength="100"`,
		`name="website"`,
		`data-when="hasInsurance=Yes"`,
		`data-when="treatmentTypes~Spravato (Esketamine) Treatment"`,
		`<option value="Yes" selected>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("markup missing %s", want)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("prefill not escaped")
	}

	// Insured: provider visible and required.  Uninsured: self-pay hidden.
	if !strings.Contains(html, `<div class="form-field" data-when="hasInsurance=Yes">`+"\n"+`<label for="fld-insuranceProvider">`) {
		t.Errorf("insurance provider should be visible")
	}
	if !strings.Contains(html, `<div class="form-field" data-when="hasInsurance=No" hidden>`) {
		t.Errorf("self-pay should be hidden")
	}
}
