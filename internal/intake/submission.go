// internal/intake/submission.go
//
// Intake – the normalized record handed to notification.
//
// Context
//   A Submission only exists for a Valid result.  Every free-text value has
//   been sanitized, the e-mail lower-cased, enumerations narrowed to their
//   vocabulary, and inactive conditional answers cleared.  SubmittedAt is
//   stamped by the validator from its clock, in UTC.
//
//   Submissions are never persisted.  They live for one request and are
//   dropped after dispatch.
//
//------------------------------------------------------------------------------

package intake

import "time"

// Submission is the sanitized, type-narrowed intake questionnaire.
type Submission struct {
	Name               string `json:"name"`
	DOB                string `json:"dob"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	ContactMethod      string `json:"contactMethod"`
	LocationPreference string `json:"locationPreference"`

	HasInsurance       string `json:"hasInsurance"`
	InsuranceProvider  string `json:"insuranceProvider,omitempty"`
	InsuranceMemberID  string `json:"insuranceMemberId,omitempty"`
	InsuranceInOwnName string `json:"insuranceInOwnName,omitempty"`
	SubscriberName     string `json:"subscriberName,omitempty"`
	SubscriberDOB      string `json:"subscriberDob,omitempty"`

	TreatmentTypes []string `json:"treatmentTypes"`
	SelfPayOption  string   `json:"selfPayOption,omitempty"`

	HasMentalHealthDiagnosis string `json:"hasMentalHealthDiagnosis"`
	DiagnosisList            string `json:"diagnosisList,omitempty"`
	TakingMedications        string `json:"takingMedications"`
	MedicationsList          string `json:"medicationsList,omitempty"`
	HasBeenHospitalized      string `json:"hasBeenHospitalized"`
	HospitalizationDetails   string `json:"hospitalizationDetails,omitempty"`

	ReasonForCare        string `json:"reasonForCare"`
	HarmThoughts         string `json:"harmThoughts"`
	TriedAntidepressants string `json:"triedAntidepressants,omitempty"`
	HasTransportation    string `json:"hasTransportation,omitempty"`

	PreferredDays  []string `json:"preferredDays"`
	PreferredTimes []string `json:"preferredTimes"`
	InTherapy      string   `json:"inTherapy,omitempty"`
	SubstanceUse   string   `json:"substanceUse,omitempty"`
	ReferralSource string   `json:"referralSource,omitempty"`

	Consent1 bool `json:"consent1"`
	Consent2 bool `json:"consent2"`

	SubmittedAt time.Time `json:"submittedAt"`
}

// Insured reports whether insurance details were collected.
func (s *Submission) Insured() bool { return s.HasInsurance == Yes }

// ThirdPartySubscriber reports whether the policy belongs to someone else.
func (s *Submission) ThirdPartySubscriber() bool {
	return s.Insured() && s.InsuranceInOwnName == No
}

// SpravatoSelected reports whether the Spravato questions apply.
func (s *Submission) SpravatoSelected() bool { return contains(s.TreatmentTypes, Spravato) }

// PrefersText reports whether the patient asked to be contacted by SMS.
func (s *Submission) PrefersText() bool { return s.ContactMethod == "Text" }

func buildSubmission(v Values, now time.Time) *Submission {
	str := func(k string) string { s, _ := v[k].(string); return s }
	list := func(k string) []string {
		l, _ := v[k].([]string)
		if l == nil {
			return []string{}
		}
		return l
	}
	flag := func(k string) bool { b, _ := v[k].(bool); return b }

	return &Submission{
		Name:               str(FieldName),
		DOB:                str(FieldDOB),
		Email:              str(FieldEmail),
		Phone:              str(FieldPhone),
		ContactMethod:      str(FieldContactMethod),
		LocationPreference: str(FieldLocationPreference),

		HasInsurance:       str(FieldHasInsurance),
		InsuranceProvider:  str(FieldInsuranceProvider),
		InsuranceMemberID:  str(FieldInsuranceMemberID),
		InsuranceInOwnName: str(FieldInsuranceInOwnName),
		SubscriberName:     str(FieldSubscriberName),
		SubscriberDOB:      str(FieldSubscriberDOB),

		TreatmentTypes: list(FieldTreatmentTypes),
		SelfPayOption:  str(FieldSelfPayOption),

		HasMentalHealthDiagnosis: str(FieldHasDiagnosis),
		DiagnosisList:            str(FieldDiagnosisList),
		TakingMedications:        str(FieldTakingMedications),
		MedicationsList:          str(FieldMedicationsList),
		HasBeenHospitalized:      str(FieldHasBeenHospitalized),
		HospitalizationDetails:   str(FieldHospitalizationDetails),

		ReasonForCare:        str(FieldReasonForCare),
		HarmThoughts:         str(FieldHarmThoughts),
		TriedAntidepressants: str(FieldTriedAntidepressants),
		HasTransportation:    str(FieldHasTransportation),

		PreferredDays:  list(FieldPreferredDays),
		PreferredTimes: list(FieldPreferredTimes),
		InTherapy:      str(FieldInTherapy),
		SubstanceUse:   str(FieldSubstanceUse),
		ReferralSource: str(FieldReferralSource),

		Consent1: flag(FieldConsent1),
		Consent2: flag(FieldConsent2),

		SubmittedAt: now.UTC(),
	}
}
