package service

import (
	"context"
	"errors"

	leadsrepo "rcm_backend/internal/leads/repository"
	patientsrepo "rcm_backend/internal/patients/repository"
	"rcm_backend/internal/vob/repository"
	"rcm_backend/internal/vob/scoring"

	"github.com/google/uuid"
)

// Rescore recomputes the lead's completeness projection from every
// contributing source: lead fields, patient fields, latest successful
// verification, and call-extracted data. Runs whenever any source changes.
func (s *Service) Rescore(ctx context.Context, leadID uuid.UUID) error {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return err
	}

	sources := scoring.Sources{Lead: leadFieldSet(lead)}

	if lead.PatientID != nil {
		patient, err := s.patients.GetByID(ctx, *lead.PatientID)
		if err != nil && !errors.Is(err, patientsrepo.ErrNotFound) {
			return err
		}
		if err == nil {
			sources.Patient = patientFieldSet(patient)
		}
	}

	hasVerification := false
	if latest, err := s.repo.LatestByLead(ctx, leadID); err == nil {
		hasVerification = latest.Status != repository.StatusPending
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if verified, err := s.repo.LatestVerifiedByLead(ctx, leadID); err == nil {
		sources.Verification = verificationFieldSet(verified)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	carrier, memberID, state, serviceType, consent, err := s.calls.LatestExtractedByLead(ctx, leadID)
	if err != nil {
		return err
	}
	sources.CallExtract = scoring.FieldSet{
		Carrier:     deref(carrier),
		MemberID:    deref(memberID),
		State:       deref(state),
		ServiceType: deref(serviceType),
		Consent:     consent,
	}

	result := scoring.Score(sources, s.weights)
	status := scoring.DeriveStatus(result.Score, sources.HasAny(), hasVerification)

	return s.leads.UpdateVOBProjection(ctx, leadID, result.Score, status, result.MissingFields)
}

func leadFieldSet(lead leadsrepo.Lead) scoring.FieldSet {
	return scoring.FieldSet{
		Carrier:     deref(lead.InsuranceCarrier),
		MemberID:    deref(lead.MemberID),
		State:       deref(lead.State),
		ServiceType: deref(lead.ServiceType),
		Consent:     lead.ConsentGiven,
	}
}

func patientFieldSet(patient patientsrepo.Patient) scoring.FieldSet {
	return scoring.FieldSet{
		Carrier:  deref(patient.InsuranceCarrier),
		MemberID: deref(patient.MemberID),
		State:    deref(patient.State),
	}
}

func verificationFieldSet(v repository.Verification) scoring.FieldSet {
	set := scoring.FieldSet{Carrier: deref(v.PayerName)}
	return set
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
