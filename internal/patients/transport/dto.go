// Package transport defines the response DTOs for the patients API.
package transport

import (
	"time"

	"rcm_backend/internal/patients/repository"

	"github.com/google/uuid"
)

type PatientResponse struct {
	ID               uuid.UUID  `json:"id"`
	LeadID           uuid.UUID  `json:"leadId"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	DateOfBirth      *time.Time `json:"dateOfBirth,omitempty"`
	State            *string    `json:"state,omitempty"`
	InsuranceCarrier *string    `json:"insuranceCarrier,omitempty"`
	MemberID         *string    `json:"memberId,omitempty"`
	PlanType         *string    `json:"planType,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func FromPatient(patient repository.Patient) PatientResponse {
	return PatientResponse{
		ID:               patient.ID,
		LeadID:           patient.LeadID,
		FirstName:        patient.FirstName,
		LastName:         patient.LastName,
		DateOfBirth:      patient.DateOfBirth,
		State:            patient.State,
		InsuranceCarrier: patient.InsuranceCarrier,
		MemberID:         patient.MemberID,
		PlanType:         patient.PlanType,
		CreatedAt:        patient.CreatedAt,
		UpdatedAt:        patient.UpdatedAt,
	}
}
