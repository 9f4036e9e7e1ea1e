// Package service implements patient record creation and lead sync.
package service

import (
	"context"
	"errors"

	leadsdomain "rcm_backend/internal/leads/domain"
	leadsrepo "rcm_backend/internal/leads/repository"
	"rcm_backend/internal/patients/repository"
	"rcm_backend/platform/apperr"
	"rcm_backend/platform/logger"

	"github.com/google/uuid"
)

type Service struct {
	repo  *repository.Repository
	leads *leadsrepo.Repository
	log   *logger.Logger
}

func New(repo *repository.Repository, leads *leadsrepo.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, leads: leads, log: log}
}

// CreateFromLead materializes the 1:1 patient record for a qualified lead and
// links it back. Idempotent: if the lead already has a patient, that patient
// is returned.
func (s *Service) CreateFromLead(ctx context.Context, leadID uuid.UUID) (repository.Patient, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, leadsrepo.ErrNotFound) {
			return repository.Patient{}, apperr.NotFound("lead not found")
		}
		s.log.DatabaseError("load lead for patient", err)
		return repository.Patient{}, apperr.Internal("could not load lead")
	}

	if lead.PatientID != nil {
		return s.GetByID(ctx, *lead.PatientID)
	}

	if lead.Status != leadsdomain.StatusQualified && lead.Status != leadsdomain.StatusConverted {
		return repository.Patient{}, apperr.Conflict("lead must be qualified before a patient record is created")
	}

	patient, err := s.repo.Create(ctx, repository.CreatePatientParams{
		LeadID:           lead.ID,
		FirstName:        lead.FirstName,
		LastName:         lead.LastName,
		DateOfBirth:      lead.DateOfBirth,
		State:            lead.State,
		InsuranceCarrier: lead.InsuranceCarrier,
		MemberID:         lead.MemberID,
	})
	if err != nil {
		s.log.DatabaseError("create patient", err)
		return repository.Patient{}, apperr.Internal("could not create patient")
	}

	if err := s.leads.SetPatientID(ctx, lead.ID, patient.ID); err != nil {
		s.log.DatabaseError("link patient to lead", err)
		return repository.Patient{}, apperr.Internal("could not link patient to lead")
	}

	return patient, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Patient, error) {
	patient, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Patient{}, apperr.NotFound("patient not found")
		}
		s.log.DatabaseError("get patient", err)
		return repository.Patient{}, apperr.Internal("could not load patient")
	}
	return patient, nil
}

// SyncFromLead is the explicit re-sync of coverage fields from the lead onto
// the patient. Patients are otherwise immutable.
func (s *Service) SyncFromLead(ctx context.Context, patientID uuid.UUID) (repository.Patient, error) {
	patient, err := s.GetByID(ctx, patientID)
	if err != nil {
		return repository.Patient{}, err
	}

	lead, err := s.leads.GetByID(ctx, patient.LeadID)
	if err != nil {
		s.log.DatabaseError("load lead for patient sync", err)
		return repository.Patient{}, apperr.Internal("could not load lead")
	}

	synced, err := s.repo.Sync(ctx, patient.ID, repository.SyncPatientParams{
		DateOfBirth:      lead.DateOfBirth,
		State:            lead.State,
		InsuranceCarrier: lead.InsuranceCarrier,
		MemberID:         lead.MemberID,
	})
	if err != nil {
		s.log.DatabaseError("sync patient", err)
		return repository.Patient{}, apperr.Internal("could not sync patient")
	}

	return synced, nil
}
