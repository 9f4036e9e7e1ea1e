// Package transport defines the request and response DTOs for the calls API.
package transport

import (
	"time"

	"rcm_backend/internal/calls/repository"

	"github.com/google/uuid"
)

type IngestCallRequest struct {
	LeadID          uuid.UUID `json:"leadId" validate:"required"`
	Direction       string    `json:"direction" validate:"required,oneof=inbound outbound"`
	DurationSeconds int       `json:"durationSeconds" validate:"omitempty,min=0"`
	RecordingURL    string    `json:"recordingUrl,omitempty" validate:"omitempty,url"`
	Transcript      string    `json:"transcript" validate:"required,min=1"`
}

type ExtractedFields struct {
	Carrier     *string `json:"carrier,omitempty"`
	MemberID    *string `json:"memberId,omitempty"`
	State       *string `json:"state,omitempty"`
	ServiceType *string `json:"serviceType,omitempty"`
	Consent     bool    `json:"consent"`
}

type CallResponse struct {
	ID              uuid.UUID       `json:"id"`
	LeadID          uuid.UUID       `json:"leadId"`
	Direction       string          `json:"direction"`
	DurationSeconds int             `json:"durationSeconds"`
	RecordingURL    *string         `json:"recordingUrl,omitempty"`
	Transcript      string          `json:"transcript"`
	Extracted       ExtractedFields `json:"extracted"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func FromCall(call repository.Call) CallResponse {
	return CallResponse{
		ID:              call.ID,
		LeadID:          call.LeadID,
		Direction:       call.Direction,
		DurationSeconds: call.DurationSeconds,
		RecordingURL:    call.RecordingURL,
		Transcript:      call.Transcript,
		Extracted: ExtractedFields{
			Carrier:     call.ExtCarrier,
			MemberID:    call.ExtMemberID,
			State:       call.ExtState,
			ServiceType: call.ExtServiceType,
			Consent:     call.ExtConsent,
		},
		CreatedAt: call.CreatedAt,
	}
}

func FromCalls(calls []repository.Call) []CallResponse {
	out := make([]CallResponse, 0, len(calls))
	for _, call := range calls {
		out = append(out, FromCall(call))
	}
	return out
}
