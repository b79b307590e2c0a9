package scoring

import (
	"strings"

	"lead_quality_backend/internal/leads/domain"
)

// InsightType classifies a suggestion.
type InsightType string

const (
	InsightNextAction   InsightType = "next_action"
	InsightBuyingSignal InsightType = "buying_signal"
	InsightRiskFactor   InsightType = "risk_factor"
	InsightOpportunity  InsightType = "opportunity"
)

// Priority ranks insights for the sales team.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Insight is a rule-derived suggestion attached to a score.
type Insight struct {
	Type            InsightType `json:"type"`
	Priority        Priority    `json:"priority"`
	Confidence      float64     `json:"confidence"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	SuggestedAction string      `json:"suggestedAction"`
	Timing          string      `json:"timing,omitempty"`
	Channel         string      `json:"channel,omitempty"`
}

func buildInsights(lead domain.Lead, factors []Factor) []Insight {
	var insights []Insight

	if f, ok := findFactor(factors, FactorEngagement); ok && f.Value < 30 {
		insights = append(insights, Insight{
			Type:            InsightNextAction,
			Priority:        PriorityHigh,
			Confidence:      0.85,
			Title:           "Re-engage lead",
			Description:     "Engagement has dropped below 30.",
			SuggestedAction: "Send a personalized re-engagement email with relevant content",
			Timing:          "within 48 hours",
			Channel:         "email",
		})
	}

	if timeline, ok := lead.CustomString(domain.CustomFieldTimeline); ok && strings.Contains(timeline, "Q1") {
		insights = append(insights, Insight{
			Type:            InsightBuyingSignal,
			Priority:        PriorityHigh,
			Confidence:      0.90,
			Title:           "Urgent timeline",
			Description:     "The lead plans to buy in Q1.",
			SuggestedAction: "Schedule a demo and prepare a proposal this week",
			Timing:          "this week",
			Channel:         "phone",
		})
	}

	if lead.ContactAttempts > 5 && lead.LastContactDate == nil {
		insights = append(insights, Insight{
			Type:            InsightRiskFactor,
			Priority:        PriorityMedium,
			Confidence:      0.75,
			Title:           "Unsuccessful attempts",
			Description:     "Several contact attempts without a recorded response.",
			SuggestedAction: "Verify contact details or try a different channel",
		})
	}

	if f, ok := findFactor(factors, FactorBudget); ok && f.Value > 80 {
		insights = append(insights, Insight{
			Type:            InsightOpportunity,
			Priority:        PriorityHigh,
			Confidence:      0.88,
			Title:           "Budget alignment",
			Description:     "Stated budget fits premium offerings.",
			SuggestedAction: "Present premium packages that match the budget",
		})
	}

	return insights
}
