// Package transport defines the request and response DTOs for the leads API.
package transport

import (
	"time"

	"rcm_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// Request DTOs
type CreateLeadRequest struct {
	FirstName        string     `json:"firstName" validate:"required,min=1,max=100"`
	LastName         string     `json:"lastName" validate:"required,min=1,max=100"`
	Phone            string     `json:"phone" validate:"required,min=5,max=20"`
	Email            string     `json:"email,omitempty" validate:"omitempty,email"`
	Source           string     `json:"source,omitempty" validate:"omitempty,max=100"`
	Priority         string     `json:"priority,omitempty" validate:"omitempty,oneof=P0 P1 P2"`
	InsuranceCarrier string     `json:"insuranceCarrier,omitempty" validate:"omitempty,max=200"`
	MemberID         string     `json:"memberId,omitempty" validate:"omitempty,max=50"`
	State            string     `json:"state,omitempty" validate:"omitempty,len=2"`
	ServiceType      string     `json:"serviceType,omitempty" validate:"omitempty,max=50"`
	ConsentGiven     bool       `json:"consentGiven,omitempty"`
	DateOfBirth      *time.Time `json:"dateOfBirth,omitempty"`
}

type UpdateLeadRequest struct {
	Email            *string    `json:"email,omitempty" validate:"omitempty,email"`
	Priority         *string    `json:"priority,omitempty" validate:"omitempty,oneof=P0 P1 P2"`
	InsuranceCarrier *string    `json:"insuranceCarrier,omitempty" validate:"omitempty,max=200"`
	MemberID         *string    `json:"memberId,omitempty" validate:"omitempty,max=50"`
	State            *string    `json:"state,omitempty" validate:"omitempty,len=2"`
	ServiceType      *string    `json:"serviceType,omitempty" validate:"omitempty,max=50"`
	ConsentGiven     *bool      `json:"consentGiven,omitempty"`
	DateOfBirth      *time.Time `json:"dateOfBirth,omitempty"`
}

type UpdateLeadStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted qualified unqualified converted lost"`
}

type ListLeadsQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=new contacted qualified unqualified converted lost"`
	Priority string `form:"priority" validate:"omitempty,oneof=P0 P1 P2"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset   int    `form:"offset" validate:"omitempty,min=0"`
}

// Response DTOs
type LeadResponse struct {
	ID               uuid.UUID  `json:"id"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Phone            string     `json:"phone"`
	Email            *string    `json:"email,omitempty"`
	Source           *string    `json:"source,omitempty"`
	Status           string     `json:"status"`
	Priority         string     `json:"priority"`
	InsuranceCarrier *string    `json:"insuranceCarrier,omitempty"`
	MemberID         *string    `json:"memberId,omitempty"`
	State            *string    `json:"state,omitempty"`
	ServiceType      *string    `json:"serviceType,omitempty"`
	ConsentGiven     bool       `json:"consentGiven"`
	DateOfBirth      *time.Time `json:"dateOfBirth,omitempty"`
	VOBStatus        string     `json:"vobStatus"`
	VOBScore         int        `json:"vobScore"`
	VOBMissingFields []string   `json:"vobMissingFields"`
	PatientID        *uuid.UUID `json:"patientId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// FromLead maps a repository lead onto the API response shape.
func FromLead(lead repository.Lead) LeadResponse {
	missing := lead.VOBMissingFields
	if missing == nil {
		missing = []string{}
	}
	return LeadResponse{
		ID:               lead.ID,
		FirstName:        lead.FirstName,
		LastName:         lead.LastName,
		Phone:            lead.Phone,
		Email:            lead.Email,
		Source:           lead.Source,
		Status:           lead.Status,
		Priority:         lead.Priority,
		InsuranceCarrier: lead.InsuranceCarrier,
		MemberID:         lead.MemberID,
		State:            lead.State,
		ServiceType:      lead.ServiceType,
		ConsentGiven:     lead.ConsentGiven,
		DateOfBirth:      lead.DateOfBirth,
		VOBStatus:        lead.VOBStatus,
		VOBScore:         lead.VOBScore,
		VOBMissingFields: missing,
		PatientID:        lead.PatientID,
		CreatedAt:        lead.CreatedAt,
		UpdatedAt:        lead.UpdatedAt,
	}
}

// FromLeads maps a slice of repository leads.
func FromLeads(leads []repository.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, FromLead(lead))
	}
	return out
}
