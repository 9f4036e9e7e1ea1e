// Package service implements denial-prevention rule management.
package service

import (
	"context"
	"errors"

	"rcm_backend/internal/rules/repository"
	"rcm_backend/internal/rules/transport"
	"rcm_backend/platform/apperr"
	"rcm_backend/platform/logger"

	"github.com/google/uuid"
)

type Service struct {
	repo *repository.Repository
	log  *logger.Logger
}

func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Create(ctx context.Context, req transport.CreateRuleRequest) (repository.Rule, error) {
	rule, err := s.repo.Create(ctx, repository.CreateRuleParams{
		Name:                 req.Name,
		Description:          req.Description,
		PayerPattern:         req.PayerPattern,
		CPTPattern:           req.CPTPattern,
		Contribution:         req.Contribution,
		RequiresVerification: req.RequiresVerification,
		PreventionAction:     req.PreventionAction,
	})
	if err != nil {
		s.log.DatabaseError("create rule", err)
		return repository.Rule{}, apperr.Internal("could not create rule")
	}
	return rule, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Rule, error) {
	rule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Rule{}, apperr.NotFound("rule not found")
		}
		s.log.DatabaseError("get rule", err)
		return repository.Rule{}, apperr.Internal("could not load rule")
	}
	return rule, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]repository.Rule, error) {
	rules, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		s.log.DatabaseError("list rules", err)
		return nil, apperr.Internal("could not list rules")
	}
	return rules, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateRuleRequest) (repository.Rule, error) {
	rule, err := s.repo.Update(ctx, id, repository.UpdateRuleParams{
		Name:                 req.Name,
		Description:          req.Description,
		PayerPattern:         req.PayerPattern,
		CPTPattern:           req.CPTPattern,
		Contribution:         req.Contribution,
		RequiresVerification: req.RequiresVerification,
		PreventionAction:     req.PreventionAction,
		Active:               req.Active,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Rule{}, apperr.NotFound("rule not found")
		}
		s.log.DatabaseError("update rule", err)
		return repository.Rule{}, apperr.Internal("could not update rule")
	}
	return rule, nil
}
