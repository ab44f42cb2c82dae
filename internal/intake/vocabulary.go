// internal/intake/vocabulary.go
//
// Intake – closed vocabularies (YAML policy data).
//
// Context
//   Enumerated answers (contact method, clinic, treatment types, yes/no, days,
//   times, referral sources) are declared in vocabulary.yaml, which is
//   embedded in the binary.  Operators may point intake.vocabulary_file at an
//   override.  LoadVocabulary parses one file and validates structural rules;
//   the conditional rules key on a few literal values, so those must exist.
//
//------------------------------------------------------------------------------

package intake

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Answers the conditional rules depend on.
const (
	Yes      = "Yes"
	No       = "No"
	NotSure  = "Not sure"
	Spravato = "Spravato (Esketamine) Treatment"
)

//go:embed vocabulary.yaml
var defaultVocabulary []byte

// Vocabulary lists the permitted values of every enumerated field.
type Vocabulary struct {
	ContactMethods  []string `yaml:"contact_methods"`
	Locations       []string `yaml:"locations"`
	TreatmentTypes  []string `yaml:"treatment_types"`
	SelfPayOptions  []string `yaml:"self_pay_options"`
	YesNo           []string `yaml:"yes_no"`
	YesNoNotSure    []string `yaml:"yes_no_not_sure"`
	Days            []string `yaml:"days"`
	Times           []string `yaml:"times"`
	ReferralSources []string `yaml:"referral_sources"`
}

// DefaultVocabulary returns the embedded vocabulary.  It panics if the
// embedded file is broken, which is a build defect rather than a runtime
// condition.
func DefaultVocabulary() *Vocabulary {
	v, err := ParseVocabulary(defaultVocabulary)
	if err != nil {
		panic("intake: embedded vocabulary invalid: " + err.Error())
	}
	return v
}

// LoadVocabulary reads and validates a vocabulary override file.
func LoadVocabulary(path string) (*Vocabulary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}
	v, err := ParseVocabulary(raw)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

// ParseVocabulary decodes YAML and enforces the structural rules.
func ParseVocabulary(raw []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if err := v.validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

func (v *Vocabulary) validate() error {
	lists := []struct {
		name string
		vals []string
	}{
		{"contact_methods", v.ContactMethods},
		{"locations", v.Locations},
		{"treatment_types", v.TreatmentTypes},
		{"self_pay_options", v.SelfPayOptions},
		{"yes_no", v.YesNo},
		{"yes_no_not_sure", v.YesNoNotSure},
		{"days", v.Days},
		{"times", v.Times},
		{"referral_sources", v.ReferralSources},
	}
	for _, l := range lists {
		if len(l.vals) == 0 {
			return fmt.Errorf("list %q is empty", l.name)
		}
		seen := make(map[string]struct{}, len(l.vals))
		for _, s := range l.vals {
			if s == "" {
				return fmt.Errorf("list %q contains an empty value", l.name)
			}
			if _, dup := seen[s]; dup {
				return fmt.Errorf("list %q contains duplicate value %q", l.name, s)
			}
			seen[s] = struct{}{}
		}
	}

	if !contains(v.YesNo, Yes) || !contains(v.YesNo, No) {
		return fmt.Errorf("list \"yes_no\" must contain %q and %q", Yes, No)
	}
	if !contains(v.YesNoNotSure, Yes) {
		return fmt.Errorf("list \"yes_no_not_sure\" must contain %q", Yes)
	}
	if !contains(v.TreatmentTypes, Spravato) {
		return fmt.Errorf("list \"treatment_types\" must contain %q", Spravato)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
