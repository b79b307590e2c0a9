package duplicates

import (
	"strings"
	"time"

	"lead_quality_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Thresholds tune detection. Both are percentages.
type Thresholds struct {
	Overall   float64 `json:"overallThreshold" validate:"gt=0,lte=100"`
	AutoMerge float64 `json:"autoMergeThreshold" validate:"gt=0,lte=100"`
}

// DefaultThresholds returns a 75% similarity cut-off and a 95% auto-review
// confidence.
func DefaultThresholds() Thresholds {
	return Thresholds{Overall: 75, AutoMerge: 95}
}

// groupNamespace scopes the name-based group ids.
var groupNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("lead_quality_backend/duplicate-group"))

// GroupID derives a stable id from the ordered member ids.
func GroupID(leadIDs []string) string {
	return uuid.NewSHA1(groupNamespace, []byte(strings.Join(leadIDs, "\x00"))).String()
}

// Detect clusters leads in a single greedy pass. Each unprocessed lead seeds a
// group; a later lead joins when its similarity to the seed and to every
// member already admitted reaches th.Overall. Leads without a match are not
// reported.
func Detect(leads []domain.Lead, th Thresholds, now time.Time) []domain.DuplicateGroup {
	groups := make([]domain.DuplicateGroup, 0)
	if len(leads) < 2 {
		return groups
	}

	processed := make([]bool, len(leads))
	for i := range leads {
		if processed[i] {
			continue
		}

		members := []int{i}
		for j := i + 1; j < len(leads); j++ {
			if processed[j] || !joins(leads, members, j, th.Overall) {
				continue
			}
			members = append(members, j)
			processed[j] = true
		}

		if len(members) < 2 {
			continue
		}
		processed[i] = true
		groups = append(groups, buildGroup(leads, members, th, now))
	}

	return groups
}

func joins(leads []domain.Lead, members []int, candidate int, threshold float64) bool {
	for _, m := range members {
		if Compare(leads[m], leads[candidate]).Overall < threshold {
			return false
		}
	}
	return true
}

func buildGroup(leads []domain.Lead, members []int, th Thresholds, now time.Time) domain.DuplicateGroup {
	group := make([]domain.Lead, len(members))
	ids := make([]string, len(members))
	for k, idx := range members {
		group[k] = leads[idx]
		ids[k] = leads[idx].ID
	}

	var sum float64
	var pairs int
	var anyEmail, anyPhone, anyName bool
	for a := 0; a < len(group); a++ {
		for b := a + 1; b < len(group); b++ {
			s := Compare(group[a], group[b])
			sum += s.Overall
			pairs++
			anyEmail = anyEmail || s.Email == 100
			anyPhone = anyPhone || s.Phone == 100
			anyName = anyName || s.Name > 90
		}
	}
	similarity := sum / float64(pairs)

	matching := make([]domain.MatchField, 0, 4)
	for _, f := range []domain.MatchField{
		domain.MatchFieldEmail, domain.MatchFieldName, domain.MatchFieldCompany, domain.MatchFieldPhone,
	} {
		if sameField(group, f) {
			matching = append(matching, f)
		}
	}

	confidence := Confidence(similarity, len(group), anyEmail, anyPhone, anyName)
	status := domain.DuplicateStatusPending
	if confidence >= th.AutoMerge/100 {
		status = domain.DuplicateStatusReviewed
	}

	return domain.DuplicateGroup{
		ID:              GroupID(ids),
		LeadIDs:         ids,
		SimilarityScore: similarity,
		MatchingFields:  matching,
		Status:          status,
		AIConfidence:    confidence,
		CreatedAt:       now,
	}
}

// Confidence estimates how certain a group is to be one contact, in
// [0.10, 0.99].
func Confidence(similarity float64, size int, emailMatch, phoneMatch, nameMatch bool) float64 {
	c := similarity / 100
	if emailMatch {
		c += 0.2
	}
	if phoneMatch {
		c += 0.15
	}
	if nameMatch {
		c += 0.1
	}
	if size > 3 {
		c -= 0.1
	}
	if similarity < 80 {
		c -= 0.15
	}

	switch {
	case c < 0.10:
		return 0.10
	case c > 0.99:
		return 0.99
	default:
		return c
	}
}
