// internal/intake/schema.go
//
// Intake – the conditional schema shared by the form controller and the
// submission endpoint.
//
// Context
//   The intake questionnaire is declared once, here, as an ordered table of
//   FieldDefs.  Each FieldDef names its base kind, its vocabulary (for
//   enumerations), its length limits, and the conditions under which it is
//   active.  Both validators (internal/formctl in the browser-side client and
//   components/contact on the server) call Schema.Validate, so a rule change
//   applies to both sides at once.
//
// Workflow
//   •  NewSchema binds a Vocabulary to the field table.
//   •  Validate (validate.go) walks Fields in order.  A field whose When
//      conditions do not hold is inactive: its value is ignored and cleared.
//   •  Conditions are evaluated against already-validated sibling values,
//      never against raw input.
//
//------------------------------------------------------------------------------

package intake

// Field names.  These are also the JSON keys of the wire payload.
const (
	FieldName                   = "name"
	FieldDOB                    = "dob"
	FieldPhone                  = "phone"
	FieldEmail                  = "email"
	FieldContactMethod          = "contactMethod"
	FieldLocationPreference     = "locationPreference"
	FieldHasInsurance           = "hasInsurance"
	FieldInsuranceProvider      = "insuranceProvider"
	FieldInsuranceMemberID      = "insuranceMemberId"
	FieldInsuranceInOwnName     = "insuranceInOwnName"
	FieldSubscriberName         = "subscriberName"
	FieldSubscriberDOB          = "subscriberDob"
	FieldTreatmentTypes         = "treatmentTypes"
	FieldSelfPayOption          = "selfPayOption"
	FieldHasDiagnosis           = "hasMentalHealthDiagnosis"
	FieldDiagnosisList          = "diagnosisList"
	FieldTakingMedications      = "takingMedications"
	FieldMedicationsList        = "medicationsList"
	FieldHasBeenHospitalized    = "hasBeenHospitalized"
	FieldHospitalizationDetails = "hospitalizationDetails"
	FieldReasonForCare          = "reasonForCare"
	FieldHarmThoughts           = "harmThoughts"
	FieldTriedAntidepressants   = "triedAntidepressants"
	FieldHasTransportation      = "hasTransportation"
	FieldPreferredDays          = "preferredDays"
	FieldPreferredTimes         = "preferredTimes"
	FieldInTherapy              = "inTherapy"
	FieldSubstanceUse           = "substanceUse"
	FieldReferralSource         = "referralSource"
	FieldConsent1               = "consent1"
	FieldConsent2               = "consent2"

	// HoneypotField is invisible to humans.  It is not part of the schema;
	// the policy gate inspects it before validation runs.
	HoneypotField = "website"
)

// CrisisMessage is returned instead of a validation error when the safety
// screen is answered affirmatively.
const CrisisMessage = "If you are in crisis or having thoughts of harming yourself or others, " +
	"please call 988 or go to the nearest emergency room. This form is not for emergencies."

// Kind is the base type of a field.
type Kind int

const (
	KindText    Kind = iota // free text, sanitized
	KindDate                // YYYY-MM-DD, not in the future
	KindPhone               // at least ten digits
	KindEmail               // lower-cased address
	KindChoice              // exactly one value from Vocab
	KindMulti               // set of values from Vocab, unknown values dropped
	KindConsent             // boolean that must be true
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindDate:
		return "date"
	case KindPhone:
		return "phone"
	case KindEmail:
		return "email"
	case KindChoice:
		return "choice"
	case KindMulti:
		return "multi"
	case KindConsent:
		return "consent"
	default:
		return "unknown"
	}
}

// Condition is one activation predicate.  Exactly one of Equals or Contains
// is set: Equals compares a single-choice sibling, Contains tests membership
// in a multi-choice sibling.
type Condition struct {
	Field    string
	Equals   string
	Contains string
}

// FieldDef describes a single question.
type FieldDef struct {
	Name      string
	Label     string
	Kind      Kind
	Vocab     []string    // KindChoice, KindMulti
	Required  bool        // required while active
	MinLength int         // runes, 0 means unset
	MaxLength int         // runes, 0 means the schema default
	When      []Condition // all must hold; empty means always active
	Multiline bool        // rendering hint for KindText
	Default   string      // KindChoice value assumed when the answer is absent

	Missing  string // message when required and absent
	Invalid  string // message when present but malformed
	TooShort string // message when under MinLength
	TooLong  string // message when over MaxLength
}

// Schema is the immutable, ordered field table.
type Schema struct {
	Fields         []FieldDef
	MaxFieldLength int
	Vocab          *Vocabulary

	index map[string]int
}

// Option tunes a Schema at construction time.
type Option func(*Schema)

// WithMaxFieldLength overrides the free-text truncation limit.
func WithMaxFieldLength(n int) Option {
	return func(s *Schema) {
		if n > 0 {
			s.MaxFieldLength = n
		}
	}
}

// DefaultSchema binds the embedded vocabulary.
func DefaultSchema(opts ...Option) *Schema { return NewSchema(DefaultVocabulary(), opts...) }

// NewSchema builds the intake field table for vocabulary v.
func NewSchema(v *Vocabulary, opts ...Option) *Schema {
	insured := Condition{Field: FieldHasInsurance, Equals: Yes}

	s := &Schema{
		MaxFieldLength: 5000,
		Vocab:          v,
		Fields: []FieldDef{
			{Name: FieldName, Label: "Full Name", Kind: KindText, Required: true,
				MinLength: 2, MaxLength: 100,
				Missing:  "Name is required",
				TooShort: "Name must be at least 2 characters",
				TooLong:  "Name must be less than 100 characters"},
			{Name: FieldDOB, Label: "Date of Birth", Kind: KindDate, Required: true,
				Missing: "Date of birth is required",
				Invalid: "Enter a valid date (YYYY-MM-DD) that is not in the future"},
			{Name: FieldPhone, Label: "Phone Number", Kind: KindPhone, Required: true,
				Missing: "Phone number is required",
				Invalid: "Please enter a valid phone number"},
			{Name: FieldEmail, Label: "Email Address", Kind: KindEmail, Required: true,
				Missing: "Email is required",
				Invalid: "Invalid email format"},
			{Name: FieldContactMethod, Label: "Preferred Contact Method", Kind: KindChoice,
				Vocab: v.ContactMethods, Default: v.ContactMethods[0],
				Invalid: "Invalid contact method"},
			{Name: FieldLocationPreference, Label: "Location Preference", Kind: KindChoice,
				Vocab: v.Locations, Required: true,
				Missing: "Location preference is required",
				Invalid: "Invalid location preference"},
			{Name: FieldHasInsurance, Label: "Do you have insurance?", Kind: KindChoice,
				Vocab: v.YesNo, Required: true,
				Missing: "Please select if you have insurance"},
			{Name: FieldInsuranceProvider, Label: "Insurance Provider", Kind: KindText,
				Required: true, When: []Condition{insured},
				Missing: "Insurance provider is required"},
			{Name: FieldInsuranceMemberID, Label: "Member ID", Kind: KindText,
				When: []Condition{insured}},
			{Name: FieldInsuranceInOwnName, Label: "Is the insurance in your name?", Kind: KindChoice,
				Vocab: v.YesNo, Required: true, When: []Condition{insured},
				Missing: "Please indicate whose name is on the insurance"},
			{Name: FieldSubscriberName, Label: "Subscriber Name", Kind: KindText,
				Required: true, When: []Condition{insured, {Field: FieldInsuranceInOwnName, Equals: No}},
				Missing: "Subscriber name is required"},
			{Name: FieldSubscriberDOB, Label: "Subscriber Date of Birth", Kind: KindDate,
				Required: true, When: []Condition{insured, {Field: FieldInsuranceInOwnName, Equals: No}},
				Missing: "Subscriber date of birth is required",
				Invalid: "Enter a valid subscriber date of birth"},
			{Name: FieldTreatmentTypes, Label: "Treatment Types", Kind: KindMulti,
				Vocab: v.TreatmentTypes, Required: true,
				Missing: "Select at least one treatment option"},
			{Name: FieldSelfPayOption, Label: "Are you interested in self-pay?", Kind: KindChoice,
				Vocab: v.SelfPayOptions, When: []Condition{{Field: FieldHasInsurance, Equals: No}},
				Invalid: "Invalid self-pay option"},
			{Name: FieldHasDiagnosis, Label: "Have you been diagnosed with a mental health condition?",
				Kind: KindChoice, Vocab: v.YesNoNotSure, Required: true,
				Missing: "Please answer about mental health diagnosis"},
			{Name: FieldDiagnosisList, Label: "Please list your diagnoses", Kind: KindText, Multiline: true,
				Required: true, When: []Condition{{Field: FieldHasDiagnosis, Equals: Yes}},
				Missing: "Please list diagnoses"},
			{Name: FieldTakingMedications, Label: "Are you currently taking psychiatric medications?",
				Kind: KindChoice, Vocab: v.YesNo, Required: true,
				Missing: "Please answer about medications"},
			{Name: FieldMedicationsList, Label: "Please list your medications", Kind: KindText, Multiline: true,
				Required: true, When: []Condition{{Field: FieldTakingMedications, Equals: Yes}},
				Missing: "Please list medications"},
			{Name: FieldHasBeenHospitalized, Label: "Have you ever been hospitalized for mental health?",
				Kind: KindChoice, Vocab: v.YesNo, Required: true,
				Missing: "Please answer hospitalization history"},
			{Name: FieldHospitalizationDetails, Label: "Hospitalization details", Kind: KindText, Multiline: true,
				When: []Condition{{Field: FieldHasBeenHospitalized, Equals: Yes}}},
			{Name: FieldReasonForCare, Label: "Reason for Seeking Care", Kind: KindText, Multiline: true,
				Required: true, MinLength: 10,
				Missing:  "Reason for seeking care is required",
				TooShort: "Please provide a brief description (10+ characters)"},
			{Name: FieldHarmThoughts, Label: "Are you currently experiencing thoughts of harming yourself or others?",
				Kind: KindChoice, Vocab: v.YesNo, Required: true,
				Missing: "Please answer the safety screening question"},
			{Name: FieldTriedAntidepressants, Label: "Have you tried at least two antidepressants?",
				Kind: KindChoice, Vocab: v.YesNoNotSure, Required: true,
				When:    []Condition{{Field: FieldTreatmentTypes, Contains: Spravato}},
				Missing: "Please answer about prior antidepressants"},
			{Name: FieldHasTransportation, Label: "Do you have transportation after treatment sessions?",
				Kind: KindChoice, Vocab: v.YesNo, Required: true,
				When:    []Condition{{Field: FieldTreatmentTypes, Contains: Spravato}},
				Missing: "Transportation answer is required"},
			{Name: FieldPreferredDays, Label: "Preferred Days", Kind: KindMulti, Vocab: v.Days},
			{Name: FieldPreferredTimes, Label: "Preferred Times", Kind: KindMulti, Vocab: v.Times},
			{Name: FieldInTherapy, Label: "Are you currently in therapy?", Kind: KindChoice, Vocab: v.YesNo,
				Invalid: "Invalid therapy answer"},
			{Name: FieldSubstanceUse, Label: "Any recent substance use?", Kind: KindChoice, Vocab: v.YesNo,
				Invalid: "Invalid substance use answer"},
			{Name: FieldReferralSource, Label: "How did you hear about us?", Kind: KindChoice,
				Vocab: v.ReferralSources, Invalid: "Invalid referral source"},
			{Name: FieldConsent1, Label: "I understand this form is not for emergencies.", Kind: KindConsent,
				Required: true, Missing: "Please acknowledge this consent"},
			{Name: FieldConsent2, Label: "I consent to being contacted about my request.", Kind: KindConsent,
				Required: true, Missing: "Please acknowledge this consent"},
		},
	}
	for _, o := range opts {
		o(s)
	}

	s.index = make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		s.index[f.Name] = i
	}
	return s
}

// Field returns the definition for name.
func (s *Schema) Field(name string) (FieldDef, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldDef{}, false
	}
	return s.Fields[i], true
}

// Dependents returns, for every field that appears in another field's When
// clause, the names of the fields that depend on it (directly or through a
// chain), in schema order.  The form controller clears these when the
// trigger changes.
func (s *Schema) Dependents() map[string][]string {
	direct := make(map[string][]string)
	for _, f := range s.Fields {
		for _, c := range f.When {
			direct[c.Field] = appendUnique(direct[c.Field], f.Name)
		}
	}

	out := make(map[string][]string, len(direct))
	for trigger := range direct {
		var deps []string
		queue := append([]string(nil), direct[trigger]...)
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			if contains(deps, n) {
				continue
			}
			deps = append(deps, n)
			queue = append(queue, direct[n]...)
		}
		out[trigger] = s.inOrder(deps)
	}
	return out
}

func (s *Schema) inOrder(names []string) []string {
	out := make([]string, 0, len(names))
	for _, f := range s.Fields {
		if contains(names, f.Name) {
			out = append(out, f.Name)
		}
	}
	return out
}

func appendUnique(list []string, v string) []string {
	if contains(list, v) {
		return list
	}
	return append(list, v)
}

// Active reports whether every condition of f holds against vals.
func (f *FieldDef) Active(vals Values) bool {
	for _, c := range f.When {
		if !c.holds(vals) {
			return false
		}
	}
	return true
}

func (c Condition) holds(vals Values) bool {
	switch v := vals[c.Field].(type) {
	case string:
		return c.Contains == "" && v == c.Equals
	case []string:
		return c.Contains != "" && contains(v, c.Contains)
	default:
		return false
	}
}
