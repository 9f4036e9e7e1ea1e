// Package transport defines the request and response DTOs for the VOB API.
package transport

import (
	"time"

	"rcm_backend/internal/vob/repository"

	"github.com/google/uuid"
)

type VerifyRequest struct {
	LeadID  uuid.UUID `json:"leadId" validate:"required"`
	PayerID string    `json:"payerId" validate:"required,min=1,max=50"`
	// Background enqueues the verification on the task queue instead of
	// running it in the request.
	Background bool `json:"background"`
}

type VerificationQueuedResponse struct {
	LeadID uuid.UUID `json:"leadId"`
	Queued bool      `json:"queued"`
}

type VerificationResponse struct {
	ID                uuid.UUID  `json:"id"`
	LeadID            uuid.UUID  `json:"leadId"`
	Status            string     `json:"status"`
	PayerName         *string    `json:"payerName,omitempty"`
	PlanType          *string    `json:"planType,omitempty"`
	CopayCents        *int64     `json:"copayCents,omitempty"`
	CoinsurancePct    *int       `json:"coinsurancePct,omitempty"`
	DeductibleCents   *int64     `json:"deductibleCents,omitempty"`
	DeductibleMet     *int64     `json:"deductibleMetCents,omitempty"`
	OOPMaxCents       *int64     `json:"oopMaxCents,omitempty"`
	OOPMetCents       *int64     `json:"oopMetCents,omitempty"`
	PriorAuthRequired bool       `json:"priorAuthRequired"`
	NetworkStatus     *string    `json:"networkStatus,omitempty"`
	PolicyStatus      *string    `json:"policyStatus,omitempty"`
	EffectiveDate     *time.Time `json:"effectiveDate,omitempty"`
	TermDate          *time.Time `json:"termDate,omitempty"`
	ErrorMessage      *string    `json:"errorMessage,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	VerifiedAt        *time.Time `json:"verifiedAt,omitempty"`
}

type ExportResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

func FromVerification(v repository.Verification) VerificationResponse {
	return VerificationResponse{
		ID:                v.ID,
		LeadID:            v.LeadID,
		Status:            v.Status,
		PayerName:         v.PayerName,
		PlanType:          v.PlanType,
		CopayCents:        v.CopayCents,
		CoinsurancePct:    v.CoinsurancePct,
		DeductibleCents:   v.DeductibleCents,
		DeductibleMet:     v.DeductibleMet,
		OOPMaxCents:       v.OOPMaxCents,
		OOPMetCents:       v.OOPMetCents,
		PriorAuthRequired: v.PriorAuthRequired,
		NetworkStatus:     v.NetworkStatus,
		PolicyStatus:      v.PolicyStatus,
		EffectiveDate:     v.EffectiveDate,
		TermDate:          v.TermDate,
		ErrorMessage:      v.ErrorMessage,
		CreatedAt:         v.CreatedAt,
		VerifiedAt:        v.VerifiedAt,
	}
}

func FromVerifications(items []repository.Verification) []VerificationResponse {
	out := make([]VerificationResponse, 0, len(items))
	for _, v := range items {
		out = append(out, FromVerification(v))
	}
	return out
}
