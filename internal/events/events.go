// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"rcm_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is captured at intake.
type LeadCreated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	Phone    string    `json:"phone"`
	Source   string    `json:"source,omitempty"`
	Priority string    `json:"priority"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// LeadFieldsChanged is published whenever insurance or consent fields on a
// lead change, from any source. The completeness scorer listens for this.
type LeadFieldsChanged struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Source string    `json:"source"` // "intake", "manual_update", "call_extraction", "verification", "patient_sync"
}

func (e LeadFieldsChanged) EventName() string { return "leads.fields.changed" }

// LeadQualified is published when a lead transitions to qualified.
type LeadQualified struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
}

func (e LeadQualified) EventName() string { return "leads.qualified" }

// =============================================================================
// Calls Domain Events
// =============================================================================

// CallIngested is published after a call recording/transcript is stored and
// its fields extracted.
type CallIngested struct {
	BaseEvent
	CallID          uuid.UUID `json:"callId"`
	LeadID          uuid.UUID `json:"leadId"`
	ExtractedFields bool      `json:"extractedFields"`
}

func (e CallIngested) EventName() string { return "calls.ingested" }

// =============================================================================
// VOB Domain Events
// =============================================================================

// VerificationCompleted is published when a benefits verification attempt
// finishes, successfully or not.
type VerificationCompleted struct {
	BaseEvent
	VerificationID uuid.UUID `json:"verificationId"`
	LeadID         uuid.UUID `json:"leadId"`
	Status         string    `json:"status"`
}

func (e VerificationCompleted) EventName() string { return "vob.verification.completed" }

// =============================================================================
// Claims Domain Events
// =============================================================================

// ClaimScored is published after risk scoring runs for a claim.
type ClaimScored struct {
	BaseEvent
	ClaimID   uuid.UUID `json:"claimId"`
	Score     int       `json:"score"`
	Readiness string    `json:"readiness"`
}

func (e ClaimScored) EventName() string { return "claims.scored" }

// ClaimTransitioned is published after a claim event is durably appended.
type ClaimTransitioned struct {
	BaseEvent
	ClaimID uuid.UUID `json:"claimId"`
	From    string    `json:"from"`
	To      string    `json:"to"`
}

func (e ClaimTransitioned) EventName() string { return "claims.transitioned" }

// ClaimDenied is published when a denial is recorded against a claim.
type ClaimDenied struct {
	BaseEvent
	ClaimID  uuid.UUID `json:"claimId"`
	DenialID uuid.UUID `json:"denialId"`
	CarcCode string    `json:"carcCode,omitempty"`
}

func (e ClaimDenied) EventName() string { return "claims.denied" }
