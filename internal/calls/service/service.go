// Package service implements call ingestion: storing the transcript,
// extracting intake fields, and merging them into the lead.
package service

import (
	"context"
	"errors"

	"rcm_backend/internal/calls/extract"
	"rcm_backend/internal/calls/repository"
	"rcm_backend/internal/calls/transport"
	"rcm_backend/internal/events"
	leadsrepo "rcm_backend/internal/leads/repository"
	"rcm_backend/platform/apperr"
	"rcm_backend/platform/logger"

	"github.com/google/uuid"
)

type Service struct {
	repo     *repository.Repository
	leads    *leadsrepo.Repository
	eventBus events.Bus
	log      *logger.Logger
}

func New(repo *repository.Repository, leads *leadsrepo.Repository, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, leads: leads, eventBus: eventBus, log: log}
}

// Ingest stores a call, extracts intake fields from its transcript, and
// merges anything new into the lead. Extraction never overwrites data the
// lead already has.
func (s *Service) Ingest(ctx context.Context, req transport.IngestCallRequest) (repository.Call, error) {
	if _, err := s.leads.GetByID(ctx, req.LeadID); err != nil {
		if errors.Is(err, leadsrepo.ErrNotFound) {
			return repository.Call{}, apperr.NotFound("lead not found")
		}
		s.log.DatabaseError("load lead for call", err)
		return repository.Call{}, apperr.Internal("could not load lead")
	}

	fields := extract.FromTranscript(req.Transcript)

	call, err := s.repo.Create(ctx, repository.CreateCallParams{
		LeadID:          req.LeadID,
		Direction:       req.Direction,
		DurationSeconds: req.DurationSeconds,
		RecordingURL:    optional(req.RecordingURL),
		Transcript:      req.Transcript,
		ExtCarrier:      optional(fields.Carrier),
		ExtMemberID:     optional(fields.MemberID),
		ExtState:        optional(fields.State),
		ExtServiceType:  optional(fields.ServiceType),
		ExtConsent:      fields.Consent,
	})
	if err != nil {
		s.log.DatabaseError("create call", err)
		return repository.Call{}, apperr.Internal("could not store call")
	}

	if !fields.Empty() {
		consent := fields.Consent
		if _, err := s.leads.MergeExtractedFields(ctx, req.LeadID,
			optional(fields.Carrier), optional(fields.MemberID), optional(fields.State),
			optional(fields.ServiceType), &consent); err != nil {
			s.log.DatabaseError("merge extracted fields", err)
			return repository.Call{}, apperr.Internal("could not merge extracted fields")
		}

		s.eventBus.Publish(ctx, events.LeadFieldsChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    req.LeadID,
			Source:    "call_extraction",
		})
	}

	s.eventBus.Publish(ctx, events.CallIngested{
		BaseEvent:       events.NewBaseEvent(),
		CallID:          call.ID,
		LeadID:          req.LeadID,
		ExtractedFields: !fields.Empty(),
	})

	return call, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Call, error) {
	call, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Call{}, apperr.NotFound("call not found")
		}
		s.log.DatabaseError("get call", err)
		return repository.Call{}, apperr.Internal("could not load call")
	}
	return call, nil
}

func (s *Service) ListByLead(ctx context.Context, leadID uuid.UUID) ([]repository.Call, error) {
	calls, err := s.repo.ListByLead(ctx, leadID)
	if err != nil {
		s.log.DatabaseError("list calls", err)
		return nil, apperr.Internal("could not list calls")
	}
	return calls, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
