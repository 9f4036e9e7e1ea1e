package scoring

import (
	"reflect"
	"testing"
)

func TestScore_AllFieldsSatisfied(t *testing.T) {
	sources := Sources{
		Lead: FieldSet{
			Carrier:     "Aetna",
			MemberID:    "W123456789",
			State:       "CA",
			ServiceType: "detox",
			Consent:     true,
		},
	}

	result := Score(sources, DefaultWeights())

	if result.Score != 100 {
		t.Fatalf("expected score 100, got %d", result.Score)
	}
	if len(result.MissingFields) != 0 {
		t.Fatalf("expected no missing fields, got %v", result.MissingFields)
	}
}

func TestScore_MissingServiceTypeOnly(t *testing.T) {
	sources := Sources{
		Lead: FieldSet{
			Carrier:  "Cigna",
			MemberID: "U98765",
			State:    "TX",
			Consent:  true,
		},
	}

	result := Score(sources, DefaultWeights())

	// carrier(25) + memberId(25) + state(15) + consent(15) = 80
	if result.Score != 80 {
		t.Fatalf("expected score 80, got %d", result.Score)
	}
	if !reflect.DeepEqual(result.MissingFields, []string{FieldServiceType}) {
		t.Fatalf("expected missing [serviceType], got %v", result.MissingFields)
	}
}

func TestScore_UnionAcrossSources(t *testing.T) {
	// Each source contributes a different field; together they satisfy all.
	sources := Sources{
		Lead:         FieldSet{Carrier: "BCBS"},
		Patient:      FieldSet{State: "FL"},
		Verification: FieldSet{MemberID: "ZGP123"},
		CallExtract:  FieldSet{ServiceType: "residential", Consent: true},
	}

	result := Score(sources, DefaultWeights())

	if result.Score != 100 {
		t.Fatalf("expected score 100 from union of sources, got %d", result.Score)
	}
	if len(result.MissingFields) != 0 {
		t.Fatalf("expected no missing fields, got %v", result.MissingFields)
	}
}

func TestScore_ConsentMustBeExplicit(t *testing.T) {
	sources := Sources{
		Lead: FieldSet{
			Carrier:     "Aetna",
			MemberID:    "W1",
			State:       "NY",
			ServiceType: "php",
			Consent:     false,
		},
	}

	result := Score(sources, DefaultWeights())

	if result.Score != 85 {
		t.Fatalf("expected score 85 without consent, got %d", result.Score)
	}
	if !reflect.DeepEqual(result.MissingFields, []string{FieldConsent}) {
		t.Fatalf("expected missing [consent], got %v", result.MissingFields)
	}
}

func TestScore_NoSources(t *testing.T) {
	result := Score(Sources{}, DefaultWeights())

	if result.Score != 0 {
		t.Fatalf("expected score 0, got %d", result.Score)
	}
	if len(result.MissingFields) != 5 {
		t.Fatalf("expected all 5 fields missing, got %v", result.MissingFields)
	}
}

func TestScore_Bounds(t *testing.T) {
	combos := []Sources{
		{},
		{Lead: FieldSet{Carrier: "X"}},
		{Lead: FieldSet{Carrier: "X", MemberID: "Y"}},
		{Patient: FieldSet{State: "AZ", Consent: true}},
		{Lead: FieldSet{Carrier: "X", MemberID: "Y", State: "AZ", ServiceType: "iop", Consent: true}},
	}
	for _, sources := range combos {
		result := Score(sources, DefaultWeights())
		if result.Score < 0 || result.Score > 100 {
			t.Errorf("score out of bounds: %d", result.Score)
		}
		if (result.Score == 100) != (len(result.MissingFields) == 0) {
			t.Errorf("score 100 must coincide with zero missing fields: score=%d missing=%v", result.Score, result.MissingFields)
		}
	}
}

func TestScore_NearFullWeightsNeverRoundTo100(t *testing.T) {
	// A tiny weight on the one missing field must not let the ratio round
	// up to 100: the 100 boundary gates claim creation.
	weights := Weights{Carrier: 1, MemberID: 500, State: 500, Consent: 500, ServiceType: 500}
	sources := Sources{
		Lead: FieldSet{
			MemberID:    "W123456789",
			State:       "CA",
			ServiceType: "detox",
			Consent:     true,
		},
	}

	result := Score(sources, weights)

	if result.Score != 99 {
		t.Fatalf("expected score capped at 99, got %d", result.Score)
	}
	if !reflect.DeepEqual(result.MissingFields, []string{FieldCarrier}) {
		t.Fatalf("expected missing [carrier], got %v", result.MissingFields)
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		score           int
		hasAnySource    bool
		hasVerification bool
		want            string
	}{
		{0, false, false, "not_started"},
		{100, true, true, "verified"},
		{80, true, true, "incomplete"},
		{80, true, false, "in_progress"},
	}
	for _, tc := range tests {
		if got := DeriveStatus(tc.score, tc.hasAnySource, tc.hasVerification); got != tc.want {
			t.Errorf("DeriveStatus(%d, %v, %v) = %q, want %q", tc.score, tc.hasAnySource, tc.hasVerification, got, tc.want)
		}
	}
}
