// Package transport defines the request and response DTOs for the denials API.
package transport

import (
	"time"

	"rcm_backend/internal/denials/repository"

	"github.com/google/uuid"
)

type RecordDenialRequest struct {
	ClaimID     uuid.UUID `json:"claimId" validate:"required"`
	CarcCode    *string   `json:"carcCode,omitempty" validate:"omitempty,max=10"`
	RootCause   *string   `json:"rootCause,omitempty" validate:"omitempty,max=100"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type DenialResponse struct {
	ID          uuid.UUID `json:"id"`
	ClaimID     uuid.UUID `json:"claimId"`
	CarcCode    *string   `json:"carcCode,omitempty"`
	RootCause   *string   `json:"rootCause,omitempty"`
	Description *string   `json:"description,omitempty"`
	AmountCents int64     `json:"amountCents"`
	CreatedAt   time.Time `json:"createdAt"`
}

func FromDenial(denial repository.Denial) DenialResponse {
	return DenialResponse{
		ID:          denial.ID,
		ClaimID:     denial.ClaimID,
		CarcCode:    denial.CarcCode,
		RootCause:   denial.RootCause,
		Description: denial.Description,
		AmountCents: denial.AmountCents,
		CreatedAt:   denial.CreatedAt,
	}
}

func FromDenials(denials []repository.Denial) []DenialResponse {
	out := make([]DenialResponse, 0, len(denials))
	for _, denial := range denials {
		out = append(out, FromDenial(denial))
	}
	return out
}
