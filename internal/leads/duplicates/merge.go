package duplicates

import (
	"sort"
	"time"

	"lead_quality_backend/internal/leads/domain"
	"lead_quality_backend/platform/apperr"
)

// Keys recorded in MergeDecision.MergedFields.
const (
	MergedFieldPhone        = "phone"
	MergedFieldJobTitle     = "jobTitle"
	MergedFieldAILeadScore  = "aiLeadScore"
	MergedFieldCustomFields = "customFields"
)

// MergeResult is the outcome of reconciling a group.
type MergeResult struct {
	Primary        domain.Lead
	RemovedLeadIDs []string
	Group          domain.DuplicateGroup
}

// Merge folds every non-primary member of group into the primary lead.
// Members are applied in group order: custom fields overwrite on collision,
// phone and job title fill only when empty, tags are unioned and the highest
// aiLeadScore wins. members must contain every lead of the group.
func Merge(group domain.DuplicateGroup, primaryID string, members []domain.Lead, reason, actor string, now time.Time) (MergeResult, error) {
	const op = "duplicates.Merge"

	if !group.Status.Active() {
		return MergeResult{}, apperr.InvalidState("duplicate group cannot be merged").
			WithOp(op).With("groupId", group.ID).With("status", string(group.Status))
	}
	if !group.Contains(primaryID) {
		return MergeResult{}, apperr.NotFound("primary lead is not a member of the group").
			WithOp(op).With("groupId", group.ID).With("leadId", primaryID)
	}

	byID := make(map[string]domain.Lead, len(members))
	for _, l := range members {
		byID[l.ID] = l
	}
	for _, id := range group.LeadIDs {
		if _, ok := byID[id]; !ok {
			return MergeResult{}, apperr.NotFound("group member not found").
				WithOp(op).With("groupId", group.ID).With("leadId", id)
		}
	}

	primary := byID[primaryID].Clone()
	changed := make(map[string]any)
	tags := newTagSet(primary.Tags())
	removed := make([]string, 0, len(group.LeadIDs)-1)

	for _, id := range group.LeadIDs {
		if id == primaryID {
			continue
		}
		other := byID[id]
		removed = append(removed, id)

		for k, v := range other.CustomFields {
			if k == domain.CustomFieldTags {
				continue
			}
			if primary.CustomFields == nil {
				primary.CustomFields = make(map[string]any)
			}
			primary.CustomFields[k] = v
			changed[MergedFieldCustomFields] = true
		}
		if primary.Phone == "" && other.Phone != "" {
			primary.Phone = other.Phone
			changed[MergedFieldPhone] = other.Phone
		}
		if primary.JobTitle == "" && other.JobTitle != "" {
			primary.JobTitle = other.JobTitle
			changed[MergedFieldJobTitle] = other.JobTitle
		}
		if tags.add(other.Tags()) {
			changed[MergedFieldCustomFields] = true
		}
		if other.AILeadScore > primary.AILeadScore {
			primary.AILeadScore = other.AILeadScore
			changed[MergedFieldAILeadScore] = other.AILeadScore
		}
	}

	if tags.len() > 0 {
		if primary.CustomFields == nil {
			primary.CustomFields = make(map[string]any)
		}
		primary.CustomFields[domain.CustomFieldTags] = tags.sorted()
	}
	if _, ok := changed[MergedFieldCustomFields]; ok {
		snapshot := make(map[string]any, len(primary.CustomFields))
		for k, v := range primary.CustomFields {
			snapshot[k] = v
		}
		changed[MergedFieldCustomFields] = snapshot
	}
	primary.UpdatedAt = now

	merged := group
	merged.LeadIDs = append([]string(nil), group.LeadIDs...)
	merged.Status = domain.DuplicateStatusMerged
	merged.ReviewedAt = &now
	merged.ReviewedBy = actor
	merged.MergeDecision = &domain.MergeDecision{
		PrimaryLeadID: primaryID,
		MergedLeadIDs: removed,
		MergedFields:  changed,
		Reason:        reason,
	}

	return MergeResult{Primary: primary, RemovedLeadIDs: removed, Group: merged}, nil
}

type tagSet map[string]struct{}

func newTagSet(initial []string) tagSet {
	s := make(tagSet, len(initial))
	s.add(initial)
	return s
}

// add reports whether any tag was new.
func (s tagSet) add(tags []string) bool {
	added := false
	for _, t := range tags {
		if _, ok := s[t]; ok {
			continue
		}
		s[t] = struct{}{}
		added = true
	}
	return added
}

func (s tagSet) len() int { return len(s) }

func (s tagSet) sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
