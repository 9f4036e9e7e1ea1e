package scoring

import (
	"errors"
	"reflect"
	"testing"

	"rcm_backend/internal/claims/domain"

	"github.com/google/uuid"
)

func verifiedCleanBenefits() BenefitsSnapshot {
	return BenefitsSnapshot{
		Verified:          true,
		PriorAuthRequired: false,
		NetworkStatus:     NetworkIn,
		PolicyStatus:      PolicyActive,
	}
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, domain.ReadinessGreen},
		{39, domain.ReadinessGreen},
		{40, domain.ReadinessYellow},
		{69, domain.ReadinessYellow},
		{70, domain.ReadinessRed},
		{100, domain.ReadinessRed},
	}
	for _, tc := range tests {
		if got := Classify(tc.score); got != tc.want {
			t.Errorf("Classify(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestEvaluate_MissingPayerOrCPT(t *testing.T) {
	weights := DefaultWeights()

	_, err := Evaluate(ClaimSnapshot{Payer: "", CPTCodes: []string{"99213"}}, verifiedCleanBenefits(), nil, weights)
	if !errors.Is(err, ErrInvalidClaimInput) {
		t.Fatalf("expected ErrInvalidClaimInput for missing payer, got %v", err)
	}

	_, err = Evaluate(ClaimSnapshot{Payer: "Aetna"}, verifiedCleanBenefits(), nil, weights)
	if !errors.Is(err, ErrInvalidClaimInput) {
		t.Fatalf("expected ErrInvalidClaimInput for missing CPT codes, got %v", err)
	}
}

func TestEvaluate_CleanVerifiedClaimIsGreen(t *testing.T) {
	claim := ClaimSnapshot{Payer: "Aetna", CPTCodes: []string{"99213"}}

	explanation, err := Evaluate(claim, verifiedCleanBenefits(), nil, DefaultWeights())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Only the base factor applies: 20.
	if explanation.Score != 20 {
		t.Fatalf("expected score 20, got %d", explanation.Score)
	}
	if explanation.Readiness != domain.ReadinessGreen {
		t.Fatalf("expected GREEN, got %s", explanation.Readiness)
	}
	if len(explanation.Factors) != 1 || explanation.Factors[0].Name != "base" {
		t.Fatalf("expected only the base factor, got %+v", explanation.Factors)
	}
}

func TestEvaluate_RiskFactorsAccumulate(t *testing.T) {
	claim := ClaimSnapshot{Payer: "Cigna", CPTCodes: []string{"90837"}}
	benefits := BenefitsSnapshot{
		Verified:          true,
		PriorAuthRequired: true,
		NetworkStatus:     NetworkOut,
		PolicyStatus:      PolicyInactive,
	}

	explanation, err := Evaluate(claim, benefits, nil, DefaultWeights())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// base(20) + prior_auth(15) + out_of_network(20) + inactive_policy(25) = 80
	if explanation.Score != 80 {
		t.Fatalf("expected score 80, got %d", explanation.Score)
	}
	if explanation.Readiness != domain.ReadinessRed {
		t.Fatalf("expected RED, got %s", explanation.Readiness)
	}

	names := make([]string, 0, len(explanation.Factors))
	for _, factor := range explanation.Factors {
		names = append(names, factor.Name)
	}
	want := []string{"base", "prior_auth", "out_of_network", "inactive_policy"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("factor order = %v, want %v", names, want)
	}
}

func TestEvaluate_UnverifiedBenefitsPenalty(t *testing.T) {
	claim := ClaimSnapshot{Payer: "BCBS", CPTCodes: []string{"99214"}}

	explanation, err := Evaluate(claim, BenefitsSnapshot{Verified: false}, nil, DefaultWeights())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// base(20) + unverified_benefits(15) = 35, still GREEN: unverified is a
	// penalty, not a hard block, when no rule demands verification.
	if explanation.Score != 35 {
		t.Fatalf("expected score 35, got %d", explanation.Score)
	}
	if explanation.Readiness != domain.ReadinessGreen {
		t.Fatalf("expected GREEN, got %s", explanation.Readiness)
	}
}

func TestEvaluate_RuleRequiringVerification(t *testing.T) {
	claim := ClaimSnapshot{Payer: "UHC", CPTCodes: []string{"H0015"}}
	rule := Rule{
		ID:                   uuid.New(),
		Name:                 "uhc-iop-auth",
		PayerPattern:         "UHC",
		CPTPattern:           "H00*",
		Contribution:         10,
		RequiresVerification: true,
	}

	explanation, err := Evaluate(claim, BenefitsSnapshot{Verified: false}, []Rule{rule}, DefaultWeights())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// base(20) + unverified_benefits(15) + rule(10) + unverified_required(25) = 70
	if explanation.Score != 70 {
		t.Fatalf("expected score 70, got %d", explanation.Score)
	}
	if explanation.Readiness != domain.ReadinessRed {
		t.Fatalf("expected RED, got %s", explanation.Readiness)
	}
	if len(explanation.FiredRules) != 1 || explanation.FiredRules[0] != rule.ID {
		t.Fatalf("expected rule %s to fire, got %v", rule.ID, explanation.FiredRules)
	}
}

func TestEvaluate_RuleMatching(t *testing.T) {
	weights := DefaultWeights()
	claim := ClaimSnapshot{Payer: "Aetna", CPTCodes: []string{"99213", "90791"}}

	tests := []struct {
		name      string
		rule      Rule
		wantFired bool
	}{
		{"exact payer and cpt", Rule{PayerPattern: "Aetna", CPTPattern: "90791"}, true},
		{"payer case insensitive", Rule{PayerPattern: "aetna", CPTPattern: "99213"}, true},
		{"cpt prefix wildcard", Rule{PayerPattern: "*", CPTPattern: "992*"}, true},
		{"any payer any cpt", Rule{PayerPattern: "*", CPTPattern: "*"}, true},
		{"wrong payer", Rule{PayerPattern: "Cigna", CPTPattern: "99213"}, false},
		{"wrong cpt", Rule{PayerPattern: "Aetna", CPTPattern: "99215"}, false},
		{"prefix without wildcard is exact", Rule{PayerPattern: "Aetna", CPTPattern: "992"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rule := tc.rule
			rule.ID = uuid.New()
			rule.Name = tc.name
			rule.Contribution = 5

			explanation, err := Evaluate(claim, verifiedCleanBenefits(), []Rule{rule}, weights)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			fired := len(explanation.FiredRules) == 1
			if fired != tc.wantFired {
				t.Fatalf("fired = %v, want %v", fired, tc.wantFired)
			}
		})
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	claim := ClaimSnapshot{Payer: "Aetna", CPTCodes: []string{"99213", "90837"}}
	benefits := BenefitsSnapshot{Verified: true, PriorAuthRequired: true, NetworkStatus: NetworkOut, PolicyStatus: PolicyActive}
	rules := []Rule{
		{ID: uuid.New(), Name: "a", PayerPattern: "*", CPTPattern: "99*", Contribution: 8},
		{ID: uuid.New(), Name: "b", PayerPattern: "Aetna", CPTPattern: "*", Contribution: -5},
	}
	weights := DefaultWeights()

	first, err := Evaluate(claim, benefits, rules, weights)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Evaluate(claim, benefits, rules, weights)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("re-scoring diverged:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestEvaluate_NegativeContributionClamps(t *testing.T) {
	claim := ClaimSnapshot{Payer: "Aetna", CPTCodes: []string{"99213"}}
	rules := []Rule{{ID: uuid.New(), Name: "trusted", PayerPattern: "*", CPTPattern: "*", Contribution: -90}}

	explanation, err := Evaluate(claim, verifiedCleanBenefits(), rules, DefaultWeights())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if explanation.Score != 0 {
		t.Fatalf("expected score clamped to 0, got %d", explanation.Score)
	}
}
