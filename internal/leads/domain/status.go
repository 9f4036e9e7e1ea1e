// Package domain provides core business rules for the leads bounded context.
package domain

// Lead statuses. A lead is never hard-deleted; closure is a status transition.
const (
	StatusNew         = "new"
	StatusContacted   = "contacted"
	StatusQualified   = "qualified"
	StatusUnqualified = "unqualified"
	StatusConverted   = "converted"
	StatusLost        = "lost"
)

// Lead priorities.
const (
	PriorityP0 = "P0"
	PriorityP1 = "P1"
	PriorityP2 = "P2"
)

// VOB statuses on the lead projection.
const (
	VOBNotStarted = "not_started"
	VOBInProgress = "in_progress"
	VOBVerified   = "verified"
	VOBIncomplete = "incomplete"
)

// statusTransitions defines the allowed lead status transitions.
var statusTransitions = map[string]map[string]bool{
	StatusNew:         {StatusContacted: true, StatusQualified: true, StatusUnqualified: true, StatusLost: true},
	StatusContacted:   {StatusQualified: true, StatusUnqualified: true, StatusLost: true},
	StatusQualified:   {StatusConverted: true, StatusLost: true},
	StatusUnqualified: {},
	StatusConverted:   {},
	StatusLost:        {},
}

// terminalStatuses are lead statuses where no further pipeline activity occurs.
var terminalStatuses = map[string]bool{
	StatusUnqualified: true,
	StatusConverted:   true,
	StatusLost:        true,
}

// CanTransition reports whether a lead may move from one status to another.
func CanTransition(from, to string) bool {
	next, ok := statusTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// IsTerminal returns true if the status closes the lead.
func IsTerminal(status string) bool {
	return terminalStatuses[status]
}

// ValidStatus reports whether the value is a known lead status.
func ValidStatus(status string) bool {
	_, ok := statusTransitions[status]
	return ok
}

// ValidPriority reports whether the value is a known priority.
func ValidPriority(priority string) bool {
	return priority == PriorityP0 || priority == PriorityP1 || priority == PriorityP2
}
