package domain

import "time"

// DuplicateStatus is the review state of a duplicate group.
type DuplicateStatus string

const (
	DuplicateStatusPending  DuplicateStatus = "pending"
	DuplicateStatusReviewed DuplicateStatus = "reviewed"
	DuplicateStatusMerged   DuplicateStatus = "merged"
	DuplicateStatusIgnored  DuplicateStatus = "ignored"
)

// Active reports whether the group still awaits a merge or ignore decision.
func (s DuplicateStatus) Active() bool {
	return s == DuplicateStatusPending || s == DuplicateStatusReviewed
}

// MatchField names a field compared during duplicate detection.
type MatchField string

const (
	MatchFieldEmail   MatchField = "email"
	MatchFieldName    MatchField = "name"
	MatchFieldCompany MatchField = "company"
	MatchFieldPhone   MatchField = "phone"
)

// MergeDecision is the audit record written when a group is merged.
type MergeDecision struct {
	PrimaryLeadID string         `json:"primaryLeadId"`
	MergedLeadIDs []string       `json:"mergedLeadIds"`
	MergedFields  map[string]any `json:"mergedFields"`
	Reason        string         `json:"reason"`
}

// DuplicateGroup is a cluster of leads judged to be the same contact.
type DuplicateGroup struct {
	ID              string          `json:"id"`
	LeadIDs         []string        `json:"leadIds"`
	SimilarityScore float64         `json:"similarityScore"`
	MatchingFields  []MatchField    `json:"matchingFields"`
	Status          DuplicateStatus `json:"status"`
	AIConfidence    float64         `json:"aiConfidence"`
	CreatedAt       time.Time       `json:"createdAt"`
	ReviewedAt      *time.Time      `json:"reviewedAt,omitempty"`
	ReviewedBy      string          `json:"reviewedBy,omitempty"`
	MergeDecision   *MergeDecision  `json:"mergeDecision,omitempty"`
}

// Contains reports whether leadID is a member.
func (g DuplicateGroup) Contains(leadID string) bool {
	for _, id := range g.LeadIDs {
		if id == leadID {
			return true
		}
	}
	return false
}
