package workflow

import "slices"

// Status is a workflow's lifecycle state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusInactive Status = "inactive"
	StatusArchived Status = "archived"
)

// Statuses lists every status.
var Statuses = []Status{StatusDraft, StatusActive, StatusPaused, StatusInactive, StatusArchived}

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return slices.Contains(Statuses, s) }

var transitions = map[Status][]Status{
	StatusDraft:    {StatusActive, StatusArchived},
	StatusActive:   {StatusPaused, StatusInactive, StatusArchived},
	StatusPaused:   {StatusActive, StatusInactive, StatusArchived},
	StatusInactive: {StatusActive, StatusArchived},
	StatusArchived: nil,
}

// CanTransition reports whether the status table permits from → to.
// It says nothing about activation; moving into [StatusActive] additionally
// requires an activatable graph.
func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s Status) []Status { return slices.Clone(transitions[s]) }
