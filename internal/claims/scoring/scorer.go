// Package scoring computes claim risk: a 0-100 score, a GREEN/YELLOW/RED
// readiness classification, and the ordered factor list explaining both.
// Evaluate is a pure function over its input snapshots so re-scoring the same
// claim always produces the same answer.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"rcm_backend/internal/claims/domain"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrInvalidClaimInput is returned when the claim snapshot lacks the
// identifying data scoring needs. The caller leaves the claim unscored
// instead of defaulting silently.
var ErrInvalidClaimInput = errors.New("claim is missing payer or CPT codes")

// Network and policy statuses from verified benefit data.
const (
	NetworkIn      = "in_network"
	NetworkOut     = "out_of_network"
	NetworkUnknown = "unknown"
	PolicyActive   = "active"
	PolicyInactive = "inactive"
	PolicyUnknown  = "unknown"
)

// Weights is the risk weight table. Values are signed additions to the score;
// higher means riskier. Treated as configuration data, overridable via the
// `risk:` section of the scoring weights file.
type Weights struct {
	Base               int `yaml:"base"`
	PriorAuth          int `yaml:"prior_auth"`
	OutOfNetwork       int `yaml:"out_of_network"`
	InactivePolicy     int `yaml:"inactive_policy"`
	UnverifiedBenefits int `yaml:"unverified_benefits"`
	UnverifiedRequired int `yaml:"unverified_required"`
}

// DefaultWeights returns the stock risk weight table.
func DefaultWeights() Weights {
	return Weights{
		Base:               20,
		PriorAuth:          15,
		OutOfNetwork:       20,
		InactivePolicy:     25,
		UnverifiedBenefits: 15,
		UnverifiedRequired: 25,
	}
}

// LoadWeights reads the `risk:` section of the scoring weights file. A blank
// path returns the defaults; zero-valued fields fall back per field so partial
// overrides are safe.
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
		Risk Weights `yaml:"risk"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return defaults, err
	}

	merged := file.Risk
	if merged.Base == 0 {
		merged.Base = defaults.Base
	}
	if merged.PriorAuth == 0 {
		merged.PriorAuth = defaults.PriorAuth
	}
	if merged.OutOfNetwork == 0 {
		merged.OutOfNetwork = defaults.OutOfNetwork
	}
	if merged.InactivePolicy == 0 {
		merged.InactivePolicy = defaults.InactivePolicy
	}
	if merged.UnverifiedBenefits == 0 {
		merged.UnverifiedBenefits = defaults.UnverifiedBenefits
	}
	if merged.UnverifiedRequired == 0 {
		merged.UnverifiedRequired = defaults.UnverifiedRequired
	}
	return merged, nil
}

// ClaimSnapshot is the claim data risk scoring reads. AmountCents feeds rule
// counters, not the score itself.
type ClaimSnapshot struct {
	Payer       string
	CPTCodes    []string
	AmountCents int64
}

// BenefitsSnapshot is the patient's verified benefit data at scoring time.
// Verified=false means no completed verification exists; the status fields are
// then ignored.
type BenefitsSnapshot struct {
	Verified          bool
	PriorAuthRequired bool
	NetworkStatus     string
	PolicyStatus      string
}

// Rule is an active denial-prevention rule as seen by the scorer. PayerPattern
// and CPTPattern use "*" as a match-anything wildcard; CPTPattern additionally
// supports a trailing "*" prefix match ("9920*"). Contribution is signed:
// negative values reward claims the rule considers safe.
type Rule struct {
	ID                   uuid.UUID
	Name                 string
	PayerPattern         string
	CPTPattern           string
	Contribution         int
	RequiresVerification bool
}

// Factor is one contribution to the risk score, in evaluation order.
type Factor struct {
	Name         string `json:"name"`
	Contribution int    `json:"contribution"`
	Description  string `json:"description"`
}

// Explanation is the full scoring output: the score, its classification, the
// ordered factors that produced it, and the ids of the rules that fired.
type Explanation struct {
	Score      int         `json:"score"`
	Readiness  string      `json:"readiness"`
	Factors    []Factor    `json:"factors"`
	FiredRules []uuid.UUID `json:"firedRules"`
}

// Classify maps a risk score onto the readiness tri-state.
// score < 40 is GREEN, 40-69 is YELLOW, 70 and above is RED.
func Classify(score int) string {
	switch {
	case score < 40:
		return domain.ReadinessGreen
	case score < 70:
		return domain.ReadinessYellow
	default:
		return domain.ReadinessRed
	}
}

// Evaluate scores a claim against the benefit snapshot and the active rule
// set. Rules are evaluated in the order given, so callers must pass a stably
// ordered slice (repositories order by created_at).
func Evaluate(claim ClaimSnapshot, benefits BenefitsSnapshot, rules []Rule, weights Weights) (Explanation, error) {
	if strings.TrimSpace(claim.Payer) == "" || len(claim.CPTCodes) == 0 {
		return Explanation{}, ErrInvalidClaimInput
	}

	score := 0.0
	factors := make([]Factor, 0, 8)
	addFactor := func(name string, contribution int, description string) {
		if contribution == 0 {
			return
		}
		score += float64(contribution)
		factors = append(factors, Factor{Name: name, Contribution: contribution, Description: description})
	}

	addFactor("base", weights.Base, "baseline submission risk")

	if benefits.Verified {
		if benefits.PriorAuthRequired {
			addFactor("prior_auth", weights.PriorAuth, "payer requires prior authorization for this service")
		}
		if benefits.NetworkStatus == NetworkOut {
			addFactor("out_of_network", weights.OutOfNetwork, "provider is out of network for this policy")
		}
		if benefits.PolicyStatus == PolicyInactive {
			addFactor("inactive_policy", weights.InactivePolicy, "policy was inactive at last verification")
		}
	} else {
		addFactor("unverified_benefits", weights.UnverifiedBenefits, "benefits have not been verified")
	}

	fired := make([]uuid.UUID, 0, len(rules))
	verificationRequired := false
	for _, rule := range rules {
		if !ruleMatches(rule, claim) {
			continue
		}
		fired = append(fired, rule.ID)
		addFactor("rule:"+rule.Name, rule.Contribution, fmt.Sprintf("rule %q matched", rule.Name))
		if rule.RequiresVerification {
			verificationRequired = true
		}
	}

	if verificationRequired && !benefits.Verified {
		addFactor("unverified_required", weights.UnverifiedRequired, "a matching rule requires verified benefits")
	}

	final := clampScore(score)
	return Explanation{
		Score:      final,
		Readiness:  Classify(final),
		Factors:    factors,
		FiredRules: fired,
	}, nil
}

func ruleMatches(rule Rule, claim ClaimSnapshot) bool {
	if !matchesPayer(rule.PayerPattern, claim.Payer) {
		return false
	}
	for _, code := range claim.CPTCodes {
		if matchesCPT(rule.CPTPattern, code) {
			return true
		}
	}
	return false
}

func matchesPayer(pattern, payer string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || pattern == "*" {
		return true
	}
	return strings.EqualFold(pattern, payer)
}

func matchesCPT(pattern, code string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(code, prefix)
	}
	return pattern == code
}

func clampScore(value float64) int {
	rounded := int(math.Round(value))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
