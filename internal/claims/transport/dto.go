// Package transport defines the request and response DTOs for the claims API.
package transport

import (
	"encoding/json"
	"time"

	"rcm_backend/internal/claims/repository"

	"github.com/google/uuid"
)

type CreateClaimRequest struct {
	PatientID   uuid.UUID `json:"patientId" validate:"required"`
	EncounterID *string   `json:"encounterId,omitempty" validate:"omitempty,max=100"`
	Payer       string    `json:"payer" validate:"required,min=1,max=200"`
	CPTCodes    []string  `json:"cptCodes" validate:"required,min=1,dive,min=3,max=10"`
	AmountCents int64     `json:"amountCents" validate:"required,min=1"`
}

type TransitionRequest struct {
	EventType string  `json:"eventType" validate:"required,oneof=verified submitted acknowledged pending suspended denied appealed paid"`
	Note      *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type ListClaimsQuery struct {
	Status    string `form:"status" validate:"omitempty,oneof=created verified submitted acknowledged pending suspended denied appealed paid"`
	Readiness string `form:"readiness" validate:"omitempty,oneof=GREEN YELLOW RED"`
	Limit     int    `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset    int    `form:"offset" validate:"omitempty,min=0"`
}

type ClaimResponse struct {
	ID              uuid.UUID       `json:"id"`
	PatientID       uuid.UUID       `json:"patientId"`
	LeadID          uuid.UUID       `json:"leadId"`
	EncounterID     *string         `json:"encounterId,omitempty"`
	Payer           string          `json:"payer"`
	CPTCodes        []string        `json:"cptCodes"`
	AmountCents     int64           `json:"amountCents"`
	Status          string          `json:"status"`
	RiskScore       *int            `json:"riskScore,omitempty"`
	ReadinessStatus *string         `json:"readinessStatus,omitempty"`
	RiskExplanation json.RawMessage `json:"riskExplanation,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type EventResponse struct {
	ID        uuid.UUID `json:"id"`
	EventType string    `json:"eventType"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type TimelineResponse struct {
	ClaimID     uuid.UUID       `json:"claimId"`
	Events      []EventResponse `json:"events"`
	Stuck       bool            `json:"stuck"`
	DaysPending int             `json:"daysPending"`
}

func FromClaim(claim repository.Claim) ClaimResponse {
	codes := claim.CPTCodes
	if codes == nil {
		codes = []string{}
	}
	return ClaimResponse{
		ID:              claim.ID,
		PatientID:       claim.PatientID,
		LeadID:          claim.LeadID,
		EncounterID:     claim.EncounterID,
		Payer:           claim.Payer,
		CPTCodes:        codes,
		AmountCents:     claim.AmountCents,
		Status:          claim.Status,
		RiskScore:       claim.RiskScore,
		ReadinessStatus: claim.ReadinessStatus,
		RiskExplanation: claim.RiskExplanation,
		CreatedAt:       claim.CreatedAt,
		UpdatedAt:       claim.UpdatedAt,
	}
}

func FromClaims(claims []repository.Claim) []ClaimResponse {
	out := make([]ClaimResponse, 0, len(claims))
	for _, claim := range claims {
		out = append(out, FromClaim(claim))
	}
	return out
}

func FromEvents(eventLog []repository.Event) []EventResponse {
	out := make([]EventResponse, 0, len(eventLog))
	for _, event := range eventLog {
		out = append(out, EventResponse{
			ID:        event.ID,
			EventType: event.EventType,
			Note:      event.Note,
			CreatedAt: event.CreatedAt,
		})
	}
	return out
}
