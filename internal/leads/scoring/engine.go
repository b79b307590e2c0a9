// Package scoring computes explainable lead quality scores from a fixed set
// of weighted factors. It performs no I/O; the caller supplies "now".
package scoring

import (
	"math"
	"strings"
	"time"

	"lead_quality_backend/internal/leads/domain"
	"lead_quality_backend/platform/apperr"
	"lead_quality_backend/platform/validator"
)

const (
	// scoreVersion tracks the scoring model for debugging and analysis.
	// Bump this when changing weights, tables or formulas.
	scoreVersion = "2026-v1"

	baseDealValue = 50_000.0

	minConversionProbability = 0.05
	maxConversionProbability = 0.95
)

// Result is the output of one scoring run.
type Result struct {
	LeadID                string    `json:"leadId"`
	Factors               []Factor  `json:"factors"`
	OverallScore          int       `json:"overallScore"`
	ConversionProbability float64   `json:"conversionProbability"`
	EstimatedDealValue    int64     `json:"estimatedDealValue"`
	Insights              []Insight `json:"insights"`
	Version               string    `json:"version"`
	ScoredAt              time.Time `json:"scoredAt"`
}

// Apply writes the derived fields onto lead.
func (r Result) Apply(lead *domain.Lead) {
	lead.AILeadScore = r.OverallScore
	lead.AIConversionProbability = r.ConversionProbability
	lead.AIEstimatedDealValue = r.EstimatedDealValue
}

// Engine scores leads against a set of lookup tables.
type Engine struct {
	tables   compiledTables
	validate *validator.Validator
}

// New creates an engine over the given tables.
func New(tables Tables, val *validator.Validator) *Engine {
	if val == nil {
		val = validator.Default
	}
	return &Engine{tables: compileTables(tables), validate: val}
}

// NewDefault creates an engine over the built-in tables.
func NewDefault() *Engine {
	return New(DefaultTables(), nil)
}

// Score computes factors, overall score, conversion probability, deal value
// and insights for lead as of now. Identical input always yields identical
// output.
func (e *Engine) Score(lead domain.Lead, now time.Time) (Result, error) {
	if err := e.check(lead); err != nil {
		return Result{}, err
	}

	ageDays := leadAgeDays(lead.CreatedAt, now)
	factors, budget, hasBudget := e.buildFactors(lead, ageDays)

	var weighted, totalWeight float64
	for _, f := range factors {
		weighted += f.Contribution()
		totalWeight += f.Weight
	}

	overall := clampScore(weighted)

	return Result{
		LeadID:                lead.ID,
		Factors:               factors,
		OverallScore:          overall,
		ConversionProbability: e.conversionProbability(lead, weighted, totalWeight, ageDays),
		EstimatedDealValue:    e.dealValue(lead, overall, budget, hasBudget),
		Insights:              buildInsights(lead, factors),
		Version:               scoreVersion,
		ScoredAt:              now,
	}, nil
}

func (e *Engine) check(lead domain.Lead) error {
	if strings.TrimSpace(lead.ID) == "" {
		return apperr.Validation("lead id is required").WithOp("scoring.Score").With("field", "id")
	}
	if err := e.validate.Struct(lead); err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid lead", err).
			WithOp("scoring.Score").
			With("leadId", lead.ID).
			With("field", validator.FirstField(err))
	}
	return nil
}

func (e *Engine) conversionProbability(lead domain.Lead, weighted, totalWeight, ageDays float64) float64 {
	if totalWeight == 0 {
		return minConversionProbability
	}

	normalized := weighted / (totalWeight * 100)
	multiplier := e.tables.conversionMultiplier.getOr(lead.Industry, defaultMultiplier)

	agePenalty := 1.0
	switch {
	case ageDays > 30:
		agePenalty = 0.9
	case ageDays > 14:
		agePenalty = 0.95
	}

	return clampFloat(normalized*multiplier*agePenalty, minConversionProbability, maxConversionProbability)
}

func (e *Engine) dealValue(lead domain.Lead, overall int, budget float64, hasBudget bool) int64 {
	value := baseDealValue
	value *= e.tables.dealSizeMultiplier.getOr(string(lead.CompanySize), defaultMultiplier)
	value *= e.tables.dealIndustryMultiplier.getOr(lead.Industry, defaultMultiplier)

	if hasBudget {
		value = math.Min(value, budget*1.2)
	}

	value *= 0.5 + float64(overall)/100
	if value < 0 {
		return 0
	}
	return int64(math.Round(value))
}

func leadAgeDays(createdAt, now time.Time) float64 {
	days := now.Sub(createdAt).Hours() / 24
	if days < 0 {
		return 0
	}
	return days
}

func clampScore(value float64) int {
	rounded := int(math.Round(value))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

func clampFloat(value float64, min float64, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
