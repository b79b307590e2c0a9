// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"lead_quality_backend/platform/events"
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

// LeadScored is published after derived scoring fields are written to a lead.
type LeadScored struct {
	BaseEvent
	LeadID                string  `json:"leadId"`
	Score                 int     `json:"score"`
	ConversionProbability float64 `json:"conversionProbability"`
	EstimatedDealValue    int64   `json:"estimatedDealValue"`
}

func (e LeadScored) EventName() string { return "leads.lead.scored" }

// =============================================================================
// Duplicate Resolution Events
// =============================================================================

// DuplicateScanCompleted is published after a scan persisted its groups.
type DuplicateScanCompleted struct {
	BaseEvent
	Scanned    int      `json:"scanned"`
	GroupIDs   []string `json:"groupIds"`
	Suppressed int      `json:"suppressed"`
}

func (e DuplicateScanCompleted) EventName() string { return "leads.duplicates.scan_completed" }

// DuplicateGroupMerged is published when a group was reconciled into one lead.
type DuplicateGroupMerged struct {
	BaseEvent
	GroupID        string   `json:"groupId"`
	PrimaryLeadID  string   `json:"primaryLeadId"`
	RemovedLeadIDs []string `json:"removedLeadIds"`
	Actor          string   `json:"actor"`
	Reason         string   `json:"reason"`
}

func (e DuplicateGroupMerged) EventName() string { return "leads.duplicates.group_merged" }

// DuplicateGroupStatusChanged is published when a group is ignored, reset or
// reviewed.
type DuplicateGroupStatusChanged struct {
	BaseEvent
	GroupID string   `json:"groupId"`
	LeadIDs []string `json:"leadIds"`
	From    string   `json:"from"`
	To      string   `json:"to"`
	Actor   string   `json:"actor"`
}

func (e DuplicateGroupStatusChanged) EventName() string { return "leads.duplicates.status_changed" }
