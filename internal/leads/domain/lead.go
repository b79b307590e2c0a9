// Package domain holds the lead records shared by scoring, duplicate
// resolution, storage and transport.
package domain

import (
	"strings"
	"time"
)

// LeadStatus is the pipeline position of a lead.
type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusContacted   LeadStatus = "contacted"
	LeadStatusQualified   LeadStatus = "qualified"
	LeadStatusProposal    LeadStatus = "proposal"
	LeadStatusNegotiation LeadStatus = "negotiation"
	LeadStatusClosedWon   LeadStatus = "closed_won"
	LeadStatusClosedLost  LeadStatus = "closed_lost"
)

// LeadRating is the sales team's temperature rating.
type LeadRating string

const (
	LeadRatingHot  LeadRating = "hot"
	LeadRatingWarm LeadRating = "warm"
	LeadRatingCold LeadRating = "cold"
)

// LeadPriority is the follow-up priority.
type LeadPriority string

const (
	LeadPriorityHigh   LeadPriority = "high"
	LeadPriorityMedium LeadPriority = "medium"
	LeadPriorityLow    LeadPriority = "low"
)

// CompanySize is a headcount bucket.
type CompanySize string

const (
	CompanySize1To10     CompanySize = "1-10"
	CompanySize11To50    CompanySize = "11-50"
	CompanySize51To200   CompanySize = "51-200"
	CompanySize201To500  CompanySize = "201-500"
	CompanySize501To1000 CompanySize = "501-1000"
	CompanySize1000Plus  CompanySize = "1000+"
)

// Custom field keys with meaning to scoring and merging.
const (
	CustomFieldBudget   = "budget"
	CustomFieldTimeline = "timeline"
	CustomFieldTags     = "tags"
)

// Lead is a prospective customer record.
// AILeadScore, AIConversionProbability and AIEstimatedDealValue are written
// only from a scoring result.
type Lead struct {
	ID          string `json:"id" validate:"required"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Phone       string `json:"phone,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
	JobTitle    string `json:"jobTitle,omitempty"`

	Industry      string      `json:"industry,omitempty"`
	CompanySize   CompanySize `json:"companySize,omitempty" validate:"omitempty,oneof=1-10 11-50 51-200 201-500 501-1000 1000+"`
	AnnualRevenue *float64    `json:"annualRevenue,omitempty" validate:"omitempty,gte=0"`
	LeadSource    string      `json:"leadSource,omitempty"`

	Status   LeadStatus   `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified proposal negotiation closed_won closed_lost"`
	Rating   LeadRating   `json:"rating,omitempty" validate:"omitempty,oneof=hot warm cold"`
	Priority LeadPriority `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`

	EngagementScore int        `json:"engagementScore" validate:"gte=0,lte=100"`
	ContactAttempts int        `json:"contactAttempts" validate:"gte=0"`
	CreatedAt       time.Time  `json:"createdAt" validate:"required"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	LastContactDate *time.Time `json:"lastContactDate,omitempty"`

	CustomFields map[string]any `json:"customFields,omitempty"`

	AILeadScore             int     `json:"aiLeadScore"`
	AIConversionProbability float64 `json:"aiConversionProbability"`
	AIEstimatedDealValue    int64   `json:"aiEstimatedDealValue"`
}

// FullName joins first and last name.
func (l Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// CustomString returns a custom field as trimmed text when it is a string.
func (l Lead) CustomString(key string) (string, bool) {
	v, ok := l.CustomFields[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Tags returns customFields.tags as strings, accepting both []string and
// the []any shape produced by JSON decoding.
func (l Lead) Tags() []string {
	switch v := l.CustomFields[CustomFieldTags].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Clone returns a copy whose custom fields and pointers can be modified freely.
func (l Lead) Clone() Lead {
	out := l
	if l.CustomFields != nil {
		out.CustomFields = make(map[string]any, len(l.CustomFields))
		for k, v := range l.CustomFields {
			out.CustomFields[k] = v
		}
	}
	if l.AnnualRevenue != nil {
		v := *l.AnnualRevenue
		out.AnnualRevenue = &v
	}
	if l.LastContactDate != nil {
		v := *l.LastContactDate
		out.LastContactDate = &v
	}
	return out
}
