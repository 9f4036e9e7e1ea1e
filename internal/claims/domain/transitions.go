// Package domain provides core business rules for the claims bounded context:
// the claim lifecycle state machine and stuck-claim detection.
package domain

import "time"

// Claim statuses. The status column on a claim is a cached projection of the
// latest event in the claim's event log, which is the source of truth.
const (
	StatusCreated      = "created"
	StatusVerified     = "verified"
	StatusSubmitted    = "submitted"
	StatusAcknowledged = "acknowledged"
	StatusPending      = "pending"
	StatusSuspended    = "suspended"
	StatusDenied       = "denied"
	StatusAppealed     = "appealed"
	StatusPaid         = "paid"
)

// Readiness classifications.
const (
	ReadinessGreen  = "GREEN"
	ReadinessYellow = "YELLOW"
	ReadinessRed    = "RED"
)

// transitions defines the allowed claim status transitions. A claim may be
// submitted directly from created (the verified scrub step is optional).
var transitions = map[string]map[string]bool{
	StatusCreated:      {StatusVerified: true, StatusSubmitted: true},
	StatusVerified:     {StatusSubmitted: true},
	StatusSubmitted:    {StatusAcknowledged: true},
	StatusAcknowledged: {StatusPending: true},
	StatusPending:      {StatusSuspended: true, StatusDenied: true, StatusPaid: true},
	StatusSuspended:    {StatusPending: true},
	StatusDenied:       {StatusAppealed: true},
	StatusAppealed:     {StatusPending: true, StatusPaid: true, StatusDenied: true},
	StatusPaid:         {},
}

// CanTransition reports whether a claim may move from one status to another.
func CanTransition(from, to string) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// CanSubmit is the submission gate: only a created claim whose readiness is
// GREEN may be submitted. Returns the blocking reason when not submittable.
func CanSubmit(status string, readiness *string) (bool, string) {
	if status != StatusCreated {
		return false, "claim in status " + status + " cannot be submitted"
	}
	if readiness == nil {
		return false, "claim has not been scored yet"
	}
	if *readiness != ReadinessGreen {
		return false, "claim readiness is " + *readiness + "; only GREEN claims may be submitted"
	}
	return true, ""
}

// ValidStatus reports whether the value is a known claim status.
func ValidStatus(status string) bool {
	_, ok := transitions[status]
	return ok
}

// IsTerminal returns true when no further transitions exist. Paid is the only
// unconditionally terminal status; denied remains open to appeal.
func IsTerminal(status string) bool {
	next, ok := transitions[status]
	return ok && len(next) == 0
}

// DefaultStuckThreshold is how long a claim may sit in pending before it is
// flagged as stuck.
const DefaultStuckThreshold = 7 * 24 * time.Hour

// StuckResult describes the outcome of stuck detection for one claim.
type StuckResult struct {
	Stuck       bool
	DaysPending int
}

// DetectStuck flags a claim whose most recent event is pending and older than
// the threshold. This is a read-time computation: the flag is never stored, so
// it can not go stale.
func DetectStuck(latestEventType string, latestEventAt, now time.Time, threshold time.Duration) StuckResult {
	if latestEventType != StatusPending {
		return StuckResult{}
	}
	if threshold <= 0 {
		threshold = DefaultStuckThreshold
	}

	elapsed := now.Sub(latestEventAt)
	days := int(elapsed.Hours() / 24)
	if days < 0 {
		days = 0
	}
	return StuckResult{
		Stuck:       elapsed > threshold,
		DaysPending: days,
	}
}
