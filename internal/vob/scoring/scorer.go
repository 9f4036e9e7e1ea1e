// Package scoring computes VOB completeness: how much of the information
// required to verify benefits and build a claim packet is already known.
package scoring

import (
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Required field names, in the order they are reported when missing.
const (
	FieldCarrier     = "carrier"
	FieldMemberID    = "memberId"
	FieldState       = "state"
	FieldConsent     = "consent"
	FieldServiceType = "serviceType"
)

// Weights assigns a completeness weight to each required field. The score is
// the satisfied weight normalized to 100, so the absolute values only matter
// relative to each other.
type Weights struct {
	Carrier     int `yaml:"carrier"`
	MemberID    int `yaml:"member_id"`
	State       int `yaml:"state"`
	Consent     int `yaml:"consent"`
	ServiceType int `yaml:"service_type"`
}

// DefaultWeights returns the stock weight table. Weights are configuration
// data; deployments override them via the scoring weights file.
func DefaultWeights() Weights {
	return Weights{
		Carrier:     25,
		MemberID:    25,
		State:       15,
		Consent:     15,
		ServiceType: 20,
	}
}

func (w Weights) total() int {
	return w.Carrier + w.MemberID + w.State + w.Consent + w.ServiceType
}

// LoadWeights reads the `vob:` section of the scoring weights file. A missing
// path returns the defaults; individual zero-valued fields fall back to their
// default so partial overrides are safe.
func LoadWeights(path string) (Weights, error) {
	defaults := DefaultWeights()
	if strings.TrimSpace(path) == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return defaults, err
	}

	var file struct {
		VOB Weights `yaml:"vob"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return defaults, err
	}

	merged := file.VOB
	if merged.Carrier == 0 {
		merged.Carrier = defaults.Carrier
	}
	if merged.MemberID == 0 {
		merged.MemberID = defaults.MemberID
	}
	if merged.State == 0 {
		merged.State = defaults.State
	}
	if merged.Consent == 0 {
		merged.Consent = defaults.Consent
	}
	if merged.ServiceType == 0 {
		merged.ServiceType = defaults.ServiceType
	}
	return merged, nil
}

// FieldSet is the contribution of one source (lead intake, patient record,
// latest verification, call extraction) toward the required fields.
type FieldSet struct {
	Carrier     string
	MemberID    string
	State       string
	ServiceType string
	Consent     bool
}

func (f FieldSet) empty() bool {
	return f.Carrier == "" && f.MemberID == "" && f.State == "" && f.ServiceType == "" && !f.Consent
}

// Sources holds every contributing source for a lead. A required field is
// satisfied when ANY source provides it; satisfaction is a union across
// sources, not an intersection.
type Sources struct {
	Lead         FieldSet
	Patient      FieldSet
	Verification FieldSet
	CallExtract  FieldSet
}

func (s Sources) all() []FieldSet {
	return []FieldSet{s.Lead, s.Patient, s.Verification, s.CallExtract}
}

// HasAny reports whether any source contributed anything at all.
func (s Sources) HasAny() bool {
	for _, set := range s.all() {
		if !set.empty() {
			return true
		}
	}
	return false
}

// Result is the completeness scorer output.
type Result struct {
	Score         int
	MissingFields []string
}

// Score computes the 0-100 completeness score and the missing field names.
// Consent counts only when explicitly true in at least one source; all other
// fields count when non-blank in at least one source.
func Score(sources Sources, weights Weights) Result {
	satisfied := 0
	missing := make([]string, 0, 5)

	has := func(pick func(FieldSet) string) bool {
		for _, set := range sources.all() {
			if strings.TrimSpace(pick(set)) != "" {
				return true
			}
		}
		return false
	}

	consent := false
	for _, set := range sources.all() {
		if set.Consent {
			consent = true
			break
		}
	}

	checks := []struct {
		name   string
		weight int
		ok     bool
	}{
		{FieldCarrier, weights.Carrier, has(func(f FieldSet) string { return f.Carrier })},
		{FieldMemberID, weights.MemberID, has(func(f FieldSet) string { return f.MemberID })},
		{FieldState, weights.State, has(func(f FieldSet) string { return f.State })},
		{FieldConsent, weights.Consent, consent},
		{FieldServiceType, weights.ServiceType, has(func(f FieldSet) string { return f.ServiceType })},
	}

	for _, check := range checks {
		if check.ok {
			satisfied += check.weight
		} else {
			missing = append(missing, check.name)
		}
	}

	total := weights.total()
	if total <= 0 {
		return Result{Score: 0, MissingFields: missing}
	}

	// Rounding drift must never blur the 100 boundary: full satisfaction is
	// exactly 100, anything missing caps below it.
	score := int(math.Round(float64(satisfied) / float64(total) * 100))
	if len(missing) == 0 {
		score = 100
	} else if score > 99 {
		score = 99
	}
	return Result{Score: score, MissingFields: missing}
}

// DeriveStatus maps a completeness result onto the lead's vob_status field.
// hasAnySource is false only when nothing has contributed yet; hasVerification
// means at least one verification attempt has completed.
func DeriveStatus(score int, hasAnySource, hasVerification bool) string {
	switch {
	case !hasAnySource:
		return "not_started"
	case score == 100:
		return "verified"
	case hasVerification:
		return "incomplete"
	default:
		return "in_progress"
	}
}
