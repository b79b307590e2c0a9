package scoring

import (
	"fmt"
	"strings"
	"unicode"

	"lead_quality_backend/internal/leads/domain"
)

// Category groups factors for display.
type Category string

const (
	CategoryDemographic  Category = "demographic"
	CategoryBehavioral   Category = "behavioral"
	CategoryEngagement   Category = "engagement"
	CategoryFirmographic Category = "firmographic"
)

// Impact is the direction a factor pushes the score.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNeutral  Impact = "neutral"
	ImpactNegative Impact = "negative"
)

// Factor keys.
const (
	FactorJobTitle    = "job_title"
	FactorCompanySize = "company_size"
	FactorIndustry    = "industry"
	FactorEngagement  = "engagement"
	FactorFreshness   = "freshness"
	FactorSource      = "source"
	FactorBudget      = "budget"
	FactorTimeline    = "timeline"
)

// Factor weights. They intentionally do not sum to 1.
const (
	weightJobTitle    = 0.15
	weightCompanySize = 0.12
	weightIndustry    = 0.10
	weightEngagement  = 0.20
	weightFreshness   = 0.08
	weightSource      = 0.10
	weightBudget      = 0.15
	weightTimeline    = 0.10
)

// Factor is one weighted input to a score.
type Factor struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Weight      float64  `json:"weight"`
	Value       float64  `json:"value"`
	Impact      Impact   `json:"impact"`
	Confidence  float64  `json:"confidence"`
	Description string   `json:"description"`
}

// Contribution is value × weight.
func (f Factor) Contribution() float64 {
	return f.Value * f.Weight
}

func impactFor(value float64) Impact {
	switch {
	case value > 60:
		return ImpactPositive
	case value < 30:
		return ImpactNegative
	default:
		return ImpactNeutral
	}
}

func newFactor(key, name string, category Category, weight, value, confidence float64, description string) Factor {
	return Factor{
		Key:         key,
		Name:        name,
		Category:    category,
		Weight:      weight,
		Value:       value,
		Impact:      impactFor(value),
		Confidence:  confidence,
		Description: description,
	}
}

// scoreJobTitle ranks decision authority by whole-word keywords, so that
// "Director" does not match "cto". Ranks are checked highest first. A
// "president" directly after "vice" counts as vp.
func scoreJobTitle(title string) float64 {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	has := make(map[string]bool, len(words))
	for i, w := range words {
		if w == "president" && i > 0 && words[i-1] == "vice" {
			has["vp"] = true
			continue
		}
		has[w] = true
	}

	switch {
	case has["ceo"] || has["founder"] || has["president"]:
		return 95
	case has["cto"] || has["cmo"] || has["cfo"]:
		return 90
	case has["vp"]:
		return 85
	case has["director"]:
		return 75
	case has["manager"]:
		return 60
	case has["senior"]:
		return 50
	default:
		return 30
	}
}

// freshnessScore starts at 100 and subtracts one age penalty and one
// contact-attempt penalty.
func freshnessScore(ageDays float64, contactAttempts int) float64 {
	score := 100.0

	switch {
	case ageDays > 30:
		score -= 40
	case ageDays > 14:
		score -= 20
	case ageDays > 7:
		score -= 10
	}

	switch {
	case contactAttempts == 0:
		score -= 30
	case contactAttempts > 5:
		score -= 20
	case contactAttempts > 2:
		score -= 10
	}

	return clampFloat(score, 0, 100)
}

func (e *Engine) buildFactors(lead domain.Lead, ageDays float64) ([]Factor, float64, bool) {
	factors := make([]Factor, 0, 8)

	if title := strings.TrimSpace(lead.JobTitle); title != "" {
		factors = append(factors, newFactor(FactorJobTitle, "Job Title Authority", CategoryDemographic,
			weightJobTitle, scoreJobTitle(title), 0.9,
			fmt.Sprintf("Decision-making authority of %q", title)))
	}

	if size := strings.TrimSpace(string(lead.CompanySize)); size != "" {
		factors = append(factors, newFactor(FactorCompanySize, "Company Size Fit", CategoryFirmographic,
			weightCompanySize, e.tables.companySize.getOr(size, defaultCompanySizeScore), 0.85,
			fmt.Sprintf("Company with %s employees", size)))
	}

	if industry := strings.TrimSpace(lead.Industry); industry != "" {
		factors = append(factors, newFactor(FactorIndustry, "Industry Alignment", CategoryFirmographic,
			weightIndustry, e.tables.industry.getOr(industry, defaultIndustryScore), 0.8,
			fmt.Sprintf("%s industry fit", industry)))
	}

	factors = append(factors, newFactor(FactorEngagement, "Engagement Level", CategoryEngagement,
		weightEngagement, float64(lead.EngagementScore), 0.95,
		fmt.Sprintf("Engagement score of %d", lead.EngagementScore)))

	factors = append(factors, newFactor(FactorFreshness, "Lead Freshness", CategoryBehavioral,
		weightFreshness, freshnessScore(ageDays, lead.ContactAttempts), 1.0,
		fmt.Sprintf("Created %d days ago with %d contact attempts", int(ageDays), lead.ContactAttempts)))

	if source := strings.TrimSpace(lead.LeadSource); source != "" {
		factors = append(factors, newFactor(FactorSource, "Source Quality", CategoryBehavioral,
			weightSource, e.tables.source.getOr(source, defaultSourceScore), 0.9,
			fmt.Sprintf("Acquired via %s", source)))
	}

	budget, hasBudget := ParseBudget(lead.CustomFields[domain.CustomFieldBudget])
	if hasBudget {
		factors = append(factors, newFactor(FactorBudget, "Budget Alignment", CategoryFirmographic,
			weightBudget, budgetScore(budget), 0.75,
			fmt.Sprintf("Stated budget of %.0f", budget)))
	}

	if timeline, ok := lead.CustomString(domain.CustomFieldTimeline); ok {
		factors = append(factors, newFactor(FactorTimeline, "Timeline Urgency", CategoryBehavioral,
			weightTimeline, e.tables.timeline.getOr(timeline, defaultTimelineScore), 0.7,
			fmt.Sprintf("Purchase timeline %q", timeline)))
	}

	return factors, budget, hasBudget
}

// findFactor returns the factor with the given key.
func findFactor(factors []Factor, key string) (Factor, bool) {
	for _, f := range factors {
		if f.Key == key {
			return f, true
		}
	}
	return Factor{}, false
}
