// Package service implements lead intake and lifecycle management.
package service

import (
	"context"
	"errors"
	"fmt"

	"rcm_backend/internal/events"
	"rcm_backend/internal/leads/domain"
	"rcm_backend/internal/leads/repository"
	"rcm_backend/internal/leads/transport"
	"rcm_backend/platform/apperr"
	"rcm_backend/platform/logger"
	"rcm_backend/platform/phone"

	"github.com/google/uuid"
)

type Service struct {
	repo     *repository.Repository
	eventBus events.Bus
	log      *logger.Logger
}

func New(repo *repository.Repository, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, log: log}
}

// Create captures a new lead at intake. The phone number is normalized to
// E.164 so duplicate detection and dialer integrations see one format.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (repository.Lead, error) {
	normalized := phone.NormalizeE164(req.Phone)

	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityP2
	}

	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Phone:            normalized,
		Email:            optional(req.Email),
		Source:           optional(req.Source),
		Priority:         priority,
		InsuranceCarrier: optional(req.InsuranceCarrier),
		MemberID:         optional(req.MemberID),
		State:            optional(req.State),
		ServiceType:      optional(req.ServiceType),
		ConsentGiven:     req.ConsentGiven,
		DateOfBirth:      req.DateOfBirth,
	})
	if err != nil {
		s.log.DatabaseError("create lead", err)
		return repository.Lead{}, apperr.Internal("could not create lead")
	}

	s.eventBus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Phone:     lead.Phone,
		Source:    req.Source,
		Priority:  lead.Priority,
	})
	s.eventBus.Publish(ctx, events.LeadFieldsChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Source:    "intake",
	})

	return lead, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Lead{}, apperr.NotFound("lead not found")
		}
		s.log.DatabaseError("get lead", err)
		return repository.Lead{}, apperr.Internal("could not load lead")
	}
	return lead, nil
}

func (s *Service) List(ctx context.Context, query transport.ListLeadsQuery) ([]repository.Lead, error) {
	leads, err := s.repo.List(ctx, repository.ListLeadsFilter{
		Status:   optional(query.Status),
		Priority: optional(query.Priority),
		Limit:    query.Limit,
		Offset:   query.Offset,
	})
	if err != nil {
		s.log.DatabaseError("list leads", err)
		return nil, apperr.Internal("could not list leads")
	}
	return leads, nil
}

// Update applies a manual edit and republishes the fields-changed event so
// the completeness projection catches up.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateLeadRequest) (repository.Lead, error) {
	lead, err := s.repo.Update(ctx, id, repository.UpdateLeadParams{
		Email:            req.Email,
		Priority:         req.Priority,
		InsuranceCarrier: req.InsuranceCarrier,
		MemberID:         req.MemberID,
		State:            req.State,
		ServiceType:      req.ServiceType,
		ConsentGiven:     req.ConsentGiven,
		DateOfBirth:      req.DateOfBirth,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Lead{}, apperr.NotFound("lead not found")
		}
		s.log.DatabaseError("update lead", err)
		return repository.Lead{}, apperr.Internal("could not update lead")
	}

	s.eventBus.Publish(ctx, events.LeadFieldsChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Source:    "manual_update",
	})

	return lead, nil
}

// UpdateStatus moves a lead through its lifecycle. Leads are never deleted;
// closure is a terminal status.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (repository.Lead, error) {
	if !domain.ValidStatus(status) {
		return repository.Lead{}, apperr.Validation(fmt.Sprintf("unknown lead status %q", status))
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return repository.Lead{}, err
	}

	if !domain.CanTransition(current.Status, status) {
		return repository.Lead{}, apperr.Conflict(fmt.Sprintf("cannot move lead from %s to %s", current.Status, status))
	}

	lead, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		s.log.DatabaseError("update lead status", err)
		return repository.Lead{}, apperr.Internal("could not update lead status")
	}

	if status == domain.StatusQualified {
		s.eventBus.Publish(ctx, events.LeadQualified{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
		})
	}

	return lead, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
