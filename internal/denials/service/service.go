// Package service implements denial recording. Recording a denial both
// appends the denied event to the claim timeline and stores the root-cause
// record the dashboard aggregates.
package service

import (
	"context"
	"errors"

	claimsdomain "rcm_backend/internal/claims/domain"
	claimsservice "rcm_backend/internal/claims/service"
	"rcm_backend/internal/denials/repository"
	"rcm_backend/internal/denials/transport"
	"rcm_backend/internal/events"
	"rcm_backend/platform/apperr"
	"rcm_backend/platform/logger"

	"github.com/google/uuid"
)

type Service struct {
	repo     *repository.Repository
	claims   *claimsservice.Service
	eventBus events.Bus
	log      *logger.Logger
}

func New(repo *repository.Repository, claims *claimsservice.Service, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, claims: claims, eventBus: eventBus, log: log}
}

// Record registers a payer denial. The denied timeline event is appended
// first; the denial record is only stored once the transition is durable.
func (s *Service) Record(ctx context.Context, req transport.RecordDenialRequest) (repository.Denial, error) {
	claim, err := s.claims.GetByID(ctx, req.ClaimID)
	if err != nil {
		return repository.Denial{}, err
	}

	if _, err := s.claims.Transition(ctx, req.ClaimID, claimsdomain.StatusDenied, req.Description); err != nil {
		return repository.Denial{}, err
	}

	denial, err := s.repo.Create(ctx, repository.CreateDenialParams{
		ClaimID:     req.ClaimID,
		CarcCode:    req.CarcCode,
		RootCause:   req.RootCause,
		Description: req.Description,
		AmountCents: claim.AmountCents,
	})
	if err != nil {
		s.log.DatabaseError("create denial", err)
		return repository.Denial{}, apperr.Internal("could not record denial")
	}

	s.eventBus.Publish(ctx, events.ClaimDenied{
		BaseEvent: events.NewBaseEvent(),
		ClaimID:   denial.ClaimID,
		DenialID:  denial.ID,
		CarcCode:  deref(denial.CarcCode),
	})

	return denial, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Denial, error) {
	denial, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Denial{}, apperr.NotFound("denial not found")
		}
		s.log.DatabaseError("get denial", err)
		return repository.Denial{}, apperr.Internal("could not load denial")
	}
	return denial, nil
}

func (s *Service) List(ctx context.Context, claimID *uuid.UUID, limit int) ([]repository.Denial, error) {
	denials, err := s.repo.List(ctx, claimID, limit)
	if err != nil {
		s.log.DatabaseError("list denials", err)
		return nil, apperr.Internal("could not list denials")
	}
	return denials, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
