// Package service orchestrates benefits verification: calling the upstream
// API, persisting append-only verification attempts, and keeping the lead's
// completeness projection current.
package service

import (
	"context"
	"errors"
	"fmt"

	callsrepo "rcm_backend/internal/calls/repository"
	"rcm_backend/internal/events"
	leadsrepo "rcm_backend/internal/leads/repository"
	patientsrepo "rcm_backend/internal/patients/repository"
	"rcm_backend/internal/vob/client"
	"rcm_backend/internal/vob/repository"
	"rcm_backend/internal/vob/scoring"
	"rcm_backend/platform/apperr"
	"rcm_backend/platform/logger"

	"github.com/google/uuid"
)

// VerifyClient is the upstream verification API surface the service needs.
// *client.Client satisfies it; tests substitute a fake.
type VerifyClient interface {
	Verify(ctx context.Context, params client.VerifyParams) (client.VerificationResult, error)
	Reverify(ctx context.Context, vobID string) (client.VerificationResult, error)
	ExportPDF(ctx context.Context, vobID string) ([]byte, error)
	SearchPayers(ctx context.Context, query string) ([]client.Payer, error)
}

// DocumentStore persists exported verification PDFs.
type DocumentStore interface {
	PutPDF(ctx context.Context, verificationID uuid.UUID, pdf []byte) (string, error)
	DownloadURL(ctx context.Context, objectKey string) (string, error)
}

type Service struct {
	repo     *repository.Repository
	leads    *leadsrepo.Repository
	patients *patientsrepo.Repository
	calls    *callsrepo.Repository
	client   VerifyClient
	lease    *VerificationLease
	docs     DocumentStore
	weights  scoring.Weights
	eventBus events.Bus
	log      *logger.Logger
}

type Deps struct {
	Repo     *repository.Repository
	Leads    *leadsrepo.Repository
	Patients *patientsrepo.Repository
	Calls    *callsrepo.Repository
	Client   VerifyClient
	Lease    *VerificationLease
	Docs     DocumentStore
	Weights  scoring.Weights
	EventBus events.Bus
	Log      *logger.Logger
}

func New(deps Deps) *Service {
	return &Service{
		repo:     deps.Repo,
		leads:    deps.Leads,
		patients: deps.Patients,
		calls:    deps.Calls,
		client:   deps.Client,
		lease:    deps.Lease,
		docs:     deps.Docs,
		weights:  deps.Weights,
		eventBus: deps.EventBus,
		log:      deps.Log,
	}
}

// Verify runs a benefits verification for a lead. A per-lead lease guarantees
// at most one in-flight verification per lead across all processes.
func (s *Service) Verify(ctx context.Context, leadID uuid.UUID, payerID string) (repository.Verification, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, leadsrepo.ErrNotFound) {
			return repository.Verification{}, apperr.NotFound("lead not found")
		}
		s.log.DatabaseError("load lead for verification", err)
		return repository.Verification{}, apperr.Internal("could not load lead")
	}

	if lead.MemberID == nil || *lead.MemberID == "" {
		return repository.Verification{}, apperr.Validation("lead has no member id to verify")
	}
	if lead.DateOfBirth == nil {
		return repository.Verification{}, apperr.Validation("lead has no date of birth to verify")
	}

	acquired, err := s.lease.Acquire(ctx, leadID)
	if err != nil {
		return repository.Verification{}, apperr.Wrap(apperr.KindInternal, "could not acquire verification lease", err)
	}
	if !acquired {
		return repository.Verification{}, apperr.Conflict("a verification for this lead is already in flight")
	}
	defer func() {
		if err := s.lease.Release(context.WithoutCancel(ctx), leadID); err != nil {
			s.log.Error("release verification lease failed", "error", err, "leadId", leadID)
		}
	}()

	attempt, err := s.repo.CreatePending(ctx, leadID)
	if err != nil {
		s.log.DatabaseError("create pending verification", err)
		return repository.Verification{}, apperr.Internal("could not create verification")
	}

	result, verr := s.client.Verify(ctx, client.VerifyParams{
		FirstName:   lead.FirstName,
		LastName:    lead.LastName,
		DateOfBirth: *lead.DateOfBirth,
		MemberID:    *lead.MemberID,
		PayerID:     payerID,
	})
	return s.finish(ctx, attempt, result, verr)
}

// Reverify re-runs a previous verification attempt via its upstream id.
func (s *Service) Reverify(ctx context.Context, verificationID uuid.UUID) (repository.Verification, error) {
	previous, err := s.GetByID(ctx, verificationID)
	if err != nil {
		return repository.Verification{}, err
	}
	if previous.UpstreamID == nil {
		return repository.Verification{}, apperr.Conflict("verification has no upstream record to re-run")
	}

	acquired, err := s.lease.Acquire(ctx, previous.LeadID)
	if err != nil {
		return repository.Verification{}, apperr.Wrap(apperr.KindInternal, "could not acquire verification lease", err)
	}
	if !acquired {
		return repository.Verification{}, apperr.Conflict("a verification for this lead is already in flight")
	}
	defer func() {
		if err := s.lease.Release(context.WithoutCancel(ctx), previous.LeadID); err != nil {
			s.log.Error("release verification lease failed", "error", err, "leadId", previous.LeadID)
		}
	}()

	attempt, err := s.repo.CreatePending(ctx, previous.LeadID)
	if err != nil {
		s.log.DatabaseError("create pending verification", err)
		return repository.Verification{}, apperr.Internal("could not create verification")
	}

	result, verr := s.client.Reverify(ctx, *previous.UpstreamID)
	return s.finish(ctx, attempt, result, verr)
}

// finish completes the attempt row, updates the completeness projection, and
// publishes the completion event. The upstream error, if any, is surfaced to
// the caller after the attempt is durably recorded.
func (s *Service) finish(ctx context.Context, attempt repository.Verification, result client.VerificationResult, verr error) (repository.Verification, error) {
	if verr != nil {
		failed, ferr := s.repo.Fail(ctx, attempt.ID, verr.Error())
		if ferr != nil {
			s.log.DatabaseError("fail verification", ferr)
			return repository.Verification{}, apperr.Internal("could not record verification failure")
		}
		s.log.VerificationEvent(attempt.LeadID.String(), false, verr.Error())
		s.afterAttempt(ctx, failed)
		return failed, verr
	}

	completed, err := s.repo.Complete(ctx, attempt.ID, repository.CompleteParams{
		UpstreamID:        optional(result.UpstreamID),
		PayerName:         optional(result.PayerName),
		PlanType:          optional(result.PlanType),
		CopayCents:        result.CopayCents,
		CoinsurancePct:    result.CoinsurancePct,
		DeductibleCents:   result.DeductibleCents,
		DeductibleMet:     result.DeductibleMet,
		OOPMaxCents:       result.OOPMaxCents,
		OOPMetCents:       result.OOPMetCents,
		PriorAuthRequired: result.PriorAuthRequired,
		NetworkStatus:     optional(result.NetworkStatus),
		PolicyStatus:      optional(result.PolicyStatus),
		EffectiveDate:     result.EffectiveDate,
		TermDate:          result.TermDate,
		RawPayload:        result.RawPayload,
	})
	if err != nil {
		s.log.DatabaseError("complete verification", err)
		return repository.Verification{}, apperr.Internal("could not record verification result")
	}

	s.log.VerificationEvent(attempt.LeadID.String(), true, "verified")
	s.afterAttempt(ctx, completed)
	return completed, nil
}

func (s *Service) afterAttempt(ctx context.Context, verification repository.Verification) {
	if err := s.Rescore(ctx, verification.LeadID); err != nil {
		s.log.Error("completeness rescore after verification failed", "error", err, "leadId", verification.LeadID)
	}

	s.eventBus.Publish(ctx, events.VerificationCompleted{
		BaseEvent:      events.NewBaseEvent(),
		VerificationID: verification.ID,
		LeadID:         verification.LeadID,
		Status:         verification.Status,
	})
	s.eventBus.Publish(ctx, events.LeadFieldsChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    verification.LeadID,
		Source:    "verification",
	})
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Verification, error) {
	verification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Verification{}, apperr.NotFound("verification not found")
		}
		s.log.DatabaseError("get verification", err)
		return repository.Verification{}, apperr.Internal("could not load verification")
	}
	return verification, nil
}

func (s *Service) ListByLead(ctx context.Context, leadID uuid.UUID) ([]repository.Verification, error) {
	items, err := s.repo.ListByLead(ctx, leadID)
	if err != nil {
		s.log.DatabaseError("list verifications", err)
		return nil, apperr.Internal("could not list verifications")
	}
	return items, nil
}

// ExportPDF pulls the upstream PDF for a verification, stores it, and returns
// a presigned download link.
func (s *Service) ExportPDF(ctx context.Context, verificationID uuid.UUID) (string, error) {
	verification, err := s.GetByID(ctx, verificationID)
	if err != nil {
		return "", err
	}
	if verification.UpstreamID == nil {
		return "", apperr.Conflict("verification has no upstream record to export")
	}
	if s.docs == nil {
		return "", apperr.Unavailable("document storage is not configured")
	}

	if verification.PDFObjectKey != nil {
		return s.docs.DownloadURL(ctx, *verification.PDFObjectKey)
	}

	pdf, err := s.client.ExportPDF(ctx, *verification.UpstreamID)
	if err != nil {
		return "", err
	}

	key, err := s.docs.PutPDF(ctx, verification.ID, pdf)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "could not store verification pdf", err)
	}
	if err := s.repo.SetPDFObjectKey(ctx, verification.ID, key); err != nil {
		s.log.DatabaseError("set pdf object key", err)
		return "", apperr.Internal(fmt.Sprintf("could not record pdf location for verification %s", verification.ID))
	}

	return s.docs.DownloadURL(ctx, key)
}

// SearchPayers proxies payer search to the upstream API.
func (s *Service) SearchPayers(ctx context.Context, query string) ([]client.Payer, error) {
	return s.client.SearchPayers(ctx, query)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
