// Package service implements claim lifecycle management: creation gated on
// verified benefits, risk scoring, submission, and the event timeline.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rcm_backend/internal/claims/domain"
	"rcm_backend/internal/claims/repository"
	"rcm_backend/internal/claims/scoring"
	"rcm_backend/internal/claims/transport"
	"rcm_backend/internal/events"
	leadsrepo "rcm_backend/internal/leads/repository"
	patientsrepo "rcm_backend/internal/patients/repository"
	rulesrepo "rcm_backend/internal/rules/repository"
	vobrepo "rcm_backend/internal/vob/repository"
	"rcm_backend/platform/apperr"
	"rcm_backend/platform/logger"

	"github.com/google/uuid"
)

type Service struct {
	repo           *repository.Repository
	patients       *patientsrepo.Repository
	leads          *leadsrepo.Repository
	verifications  *vobrepo.Repository
	rules          *rulesrepo.Repository
	weights        scoring.Weights
	stuckThreshold time.Duration
	eventBus       events.Bus
	log            *logger.Logger
}

type Deps struct {
	Repo           *repository.Repository
	Patients       *patientsrepo.Repository
	Leads          *leadsrepo.Repository
	Verifications  *vobrepo.Repository
	Rules          *rulesrepo.Repository
	Weights        scoring.Weights
	StuckThreshold time.Duration
	EventBus       events.Bus
	Log            *logger.Logger
}

func New(deps Deps) *Service {
	threshold := deps.StuckThreshold
	if threshold <= 0 {
		threshold = domain.DefaultStuckThreshold
	}
	return &Service{
		repo:           deps.Repo,
		patients:       deps.Patients,
		leads:          deps.Leads,
		verifications:  deps.Verifications,
		rules:          deps.Rules,
		weights:        deps.Weights,
		stuckThreshold: threshold,
		eventBus:       deps.EventBus,
		log:            deps.Log,
	}
}

// Create builds a claim packet for a patient. Requires the originating lead's
// completeness score to be 100: an incomplete packet cannot become a claim.
func (s *Service) Create(ctx context.Context, req transport.CreateClaimRequest) (repository.Claim, error) {
	patient, err := s.patients.GetByID(ctx, req.PatientID)
	if err != nil {
		if errors.Is(err, patientsrepo.ErrNotFound) {
			return repository.Claim{}, apperr.NotFound("patient not found")
		}
		s.log.DatabaseError("load patient for claim", err)
		return repository.Claim{}, apperr.Internal("could not load patient")
	}

	lead, err := s.leads.GetByID(ctx, patient.LeadID)
	if err != nil {
		s.log.DatabaseError("load lead for claim", err)
		return repository.Claim{}, apperr.Internal("could not load lead")
	}
	if lead.VOBScore != 100 {
		return repository.Claim{}, apperr.Conflict(fmt.Sprintf(
			"claim packet incomplete: completeness score is %d, missing %v", lead.VOBScore, lead.VOBMissingFields))
	}

	claim, err := s.repo.Create(ctx, repository.CreateClaimParams{
		PatientID:   patient.ID,
		LeadID:      patient.LeadID,
		EncounterID: req.EncounterID,
		Payer:       req.Payer,
		CPTCodes:    req.CPTCodes,
		AmountCents: req.AmountCents,
	})
	if err != nil {
		s.log.DatabaseError("create claim", err)
		return repository.Claim{}, apperr.Internal("could not create claim")
	}

	// Score immediately so the claim lands with a readiness classification.
	if scored, err := s.Score(ctx, claim.ID); err != nil {
		s.log.Error("initial claim scoring failed", "error", err, "claimId", claim.ID)
	} else {
		claim = scored
	}

	return claim, nil
}

// Score runs risk scoring over the current claim, benefits, and rule
// snapshots and stores the result. Pure function inside, so re-scoring is
// idempotent; the rule trigger counters are the only side effect.
func (s *Service) Score(ctx context.Context, claimID uuid.UUID) (repository.Claim, error) {
	claim, err := s.GetByID(ctx, claimID)
	if err != nil {
		return repository.Claim{}, err
	}

	benefits, err := s.benefitsSnapshot(ctx, claim.LeadID)
	if err != nil {
		return repository.Claim{}, err
	}

	activeRules, err := s.rules.List(ctx, true)
	if err != nil {
		s.log.DatabaseError("list active rules", err)
		return repository.Claim{}, apperr.Internal("could not load rules")
	}

	explanation, err := scoring.Evaluate(scoring.ClaimSnapshot{
		Payer:       claim.Payer,
		CPTCodes:    claim.CPTCodes,
		AmountCents: claim.AmountCents,
	}, benefits, scoringRules(activeRules), s.weights)
	if err != nil {
		if errors.Is(err, scoring.ErrInvalidClaimInput) {
			return repository.Claim{}, apperr.Validation(err.Error())
		}
		return repository.Claim{}, apperr.Internal("could not score claim")
	}

	encoded, err := json.Marshal(explanation)
	if err != nil {
		return repository.Claim{}, apperr.Wrap(apperr.KindInternal, "could not encode risk explanation", err)
	}
	if err := s.repo.SetRiskScore(ctx, claim.ID, explanation.Score, explanation.Readiness, encoded); err != nil {
		s.log.DatabaseError("store risk score", err)
		return repository.Claim{}, apperr.Internal("could not store risk score")
	}

	if err := s.rules.IncrementTriggered(ctx, explanation.FiredRules); err != nil {
		s.log.DatabaseError("increment rule triggers", err)
	}

	s.eventBus.Publish(ctx, events.ClaimScored{
		BaseEvent: events.NewBaseEvent(),
		ClaimID:   claim.ID,
		Score:     explanation.Score,
		Readiness: explanation.Readiness,
	})

	return s.GetByID(ctx, claim.ID)
}

// Submit moves a claim to submitted. Only GREEN claims still in created may
// be submitted; a blocked RED claim credits the rules that flagged it, since
// the block is a prevented denial.
func (s *Service) Submit(ctx context.Context, claimID uuid.UUID) (repository.Claim, error) {
	claim, err := s.GetByID(ctx, claimID)
	if err != nil {
		return repository.Claim{}, err
	}

	if ok, reason := domain.CanSubmit(claim.Status, claim.ReadinessStatus); !ok {
		// A blocked RED submission is a prevented denial; credit the rules
		// that flagged it.
		if claim.ReadinessStatus != nil && *claim.ReadinessStatus == domain.ReadinessRed {
			s.creditPreventedDenial(ctx, claim)
		}
		return repository.Claim{}, apperr.Conflict(reason)
	}

	return s.Transition(ctx, claimID, domain.StatusSubmitted, nil)
}

// creditPreventedDenial bumps prevented/protected counters for the rules that
// fired on a blocked RED claim.
func (s *Service) creditPreventedDenial(ctx context.Context, claim repository.Claim) {
	if len(claim.RiskExplanation) == 0 {
		return
	}
	var explanation scoring.Explanation
	if err := json.Unmarshal(claim.RiskExplanation, &explanation); err != nil {
		s.log.Error("decode risk explanation failed", "error", err, "claimId", claim.ID)
		return
	}
	if err := s.rules.RecordPrevented(ctx, explanation.FiredRules, claim.AmountCents); err != nil {
		s.log.DatabaseError("record prevented denial", err)
	}
}

// Transition appends a lifecycle event. The repository validates legality
// against the locked current status; status only changes after the event is
// durably appended.
func (s *Service) Transition(ctx context.Context, claimID uuid.UUID, eventType string, note *string) (repository.Claim, error) {
	if !domain.ValidStatus(eventType) {
		return repository.Claim{}, apperr.Validation(fmt.Sprintf("unknown claim event type %q", eventType))
	}

	claim, err := s.GetByID(ctx, claimID)
	if err != nil {
		return repository.Claim{}, err
	}
	from := claim.Status

	updated, err := s.repo.AppendEvent(ctx, claimID, eventType, note)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return repository.Claim{}, apperr.Conflict(err.Error())
		}
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Claim{}, apperr.NotFound("claim not found")
		}
		s.log.DatabaseError("append claim event", err)
		return repository.Claim{}, apperr.Internal("could not append claim event")
	}

	s.eventBus.Publish(ctx, events.ClaimTransitioned{
		BaseEvent: events.NewBaseEvent(),
		ClaimID:   claimID,
		From:      from,
		To:        eventType,
	})

	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Claim, error) {
	claim, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Claim{}, apperr.NotFound("claim not found")
		}
		s.log.DatabaseError("get claim", err)
		return repository.Claim{}, apperr.Internal("could not load claim")
	}
	return claim, nil
}

func (s *Service) List(ctx context.Context, filter repository.ListClaimsFilter) ([]repository.Claim, error) {
	claims, err := s.repo.List(ctx, filter)
	if err != nil {
		s.log.DatabaseError("list claims", err)
		return nil, apperr.Internal("could not list claims")
	}
	return claims, nil
}

// Timeline returns the full event log plus read-time stuck detection. The
// stuck flag is computed on every query, never stored.
func (s *Service) Timeline(ctx context.Context, claimID uuid.UUID) (transport.TimelineResponse, error) {
	if _, err := s.GetByID(ctx, claimID); err != nil {
		return transport.TimelineResponse{}, err
	}

	eventLog, err := s.repo.ListEvents(ctx, claimID)
	if err != nil {
		s.log.DatabaseError("list claim events", err)
		return transport.TimelineResponse{}, apperr.Internal("could not load claim timeline")
	}

	response := transport.TimelineResponse{
		ClaimID: claimID,
		Events:  transport.FromEvents(eventLog),
	}
	if len(eventLog) > 0 {
		latest := eventLog[len(eventLog)-1]
		stuck := domain.DetectStuck(latest.EventType, latest.CreatedAt, time.Now(), s.stuckThreshold)
		response.Stuck = stuck.Stuck
		response.DaysPending = stuck.DaysPending
	}
	return response, nil
}

// ListStuck returns every claim currently stuck in pending.
func (s *Service) ListStuck(ctx context.Context) ([]repository.StuckClaim, error) {
	items, err := s.repo.ListStuckPending(ctx, s.stuckThreshold)
	if err != nil {
		s.log.DatabaseError("list stuck claims", err)
		return nil, apperr.Internal("could not list stuck claims")
	}
	return items, nil
}

// RescoreCreated re-runs risk scoring for every claim still in created,
// typically after the rule set changes.
func (s *Service) RescoreCreated(ctx context.Context) (int, error) {
	ids, err := s.repo.ListIDsByStatus(ctx, domain.StatusCreated)
	if err != nil {
		s.log.DatabaseError("list claims for rescore", err)
		return 0, apperr.Internal("could not list claims for rescore")
	}

	rescored := 0
	for _, id := range ids {
		if _, err := s.Score(ctx, id); err != nil {
			s.log.Error("claim rescore failed", "error", err, "claimId", id)
			continue
		}
		rescored++
	}
	return rescored, nil
}

func (s *Service) benefitsSnapshot(ctx context.Context, leadID uuid.UUID) (scoring.BenefitsSnapshot, error) {
	verification, err := s.verifications.LatestVerifiedByLead(ctx, leadID)
	if err != nil {
		if errors.Is(err, vobrepo.ErrNotFound) {
			return scoring.BenefitsSnapshot{Verified: false}, nil
		}
		s.log.DatabaseError("load verification for scoring", err)
		return scoring.BenefitsSnapshot{}, apperr.Internal("could not load benefits data")
	}

	return scoring.BenefitsSnapshot{
		Verified:          true,
		PriorAuthRequired: verification.PriorAuthRequired,
		NetworkStatus:     derefOr(verification.NetworkStatus, scoring.NetworkUnknown),
		PolicyStatus:      derefOr(verification.PolicyStatus, scoring.PolicyUnknown),
	}, nil
}

func scoringRules(rules []rulesrepo.Rule) []scoring.Rule {
	out := make([]scoring.Rule, 0, len(rules))
	for _, rule := range rules {
		out = append(out, scoring.Rule{
			ID:                   rule.ID,
			Name:                 rule.Name,
			PayerPattern:         rule.PayerPattern,
			CPTPattern:           rule.CPTPattern,
			Contribution:         rule.Contribution,
			RequiresVerification: rule.RequiresVerification,
		})
	}
	return out
}

func derefOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}
