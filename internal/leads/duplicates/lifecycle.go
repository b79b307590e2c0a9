package duplicates

import (
	"time"

	"lead_quality_backend/internal/leads/domain"
	"lead_quality_backend/platform/apperr"
)

// Ignore marks an active group as not a duplicate. Ignored groups are
// excluded from future scans until reset.
func Ignore(group domain.DuplicateGroup, actor string, now time.Time) (domain.DuplicateGroup, error) {
	if !group.Status.Active() {
		return group, invalidTransition("duplicates.Ignore", group)
	}
	return transition(group, domain.DuplicateStatusIgnored, actor, now), nil
}

// Reset returns an ignored group to pending.
func Reset(group domain.DuplicateGroup, actor string, now time.Time) (domain.DuplicateGroup, error) {
	if group.Status != domain.DuplicateStatusIgnored {
		return group, invalidTransition("duplicates.Reset", group)
	}
	return transition(group, domain.DuplicateStatusPending, actor, now), nil
}

// Review marks a pending group as checked by a person.
func Review(group domain.DuplicateGroup, actor string, now time.Time) (domain.DuplicateGroup, error) {
	if group.Status != domain.DuplicateStatusPending {
		return group, invalidTransition("duplicates.Review", group)
	}
	return transition(group, domain.DuplicateStatusReviewed, actor, now), nil
}

func transition(group domain.DuplicateGroup, status domain.DuplicateStatus, actor string, now time.Time) domain.DuplicateGroup {
	group.Status = status
	group.ReviewedAt = &now
	group.ReviewedBy = actor
	return group
}

func invalidTransition(op string, group domain.DuplicateGroup) error {
	return apperr.InvalidState("duplicate group is not in an actionable status").
		WithOp(op).With("groupId", group.ID).With("status", string(group.Status))
}

// RemoveMember drops leadID from an active group and recomputes its
// similarity, matching fields and confidence over remaining, the surviving
// member leads. It reports false when fewer than two members are left and the
// group should be dissolved. Id, status and creation time are kept.
func RemoveMember(group domain.DuplicateGroup, leadID string, remaining []domain.Lead, th Thresholds, now time.Time) (domain.DuplicateGroup, bool) {
	byID := make(map[string]domain.Lead, len(remaining))
	for _, l := range remaining {
		byID[l.ID] = l
	}

	kept := make([]domain.Lead, 0, len(group.LeadIDs))
	for _, id := range group.LeadIDs {
		if id == leadID {
			continue
		}
		if l, ok := byID[id]; ok {
			kept = append(kept, l)
		}
	}
	if len(kept) < 2 {
		return group, false
	}

	idx := make([]int, len(kept))
	for i := range kept {
		idx[i] = i
	}
	rebuilt := buildGroup(kept, idx, th, now)
	rebuilt.ID = group.ID
	rebuilt.Status = group.Status
	rebuilt.CreatedAt = group.CreatedAt
	rebuilt.ReviewedAt = group.ReviewedAt
	rebuilt.ReviewedBy = group.ReviewedBy
	return rebuilt, true
}
