// Package duplicates finds probable duplicate leads through fuzzy field
// similarity, clusters them into groups, and reconciles a group into one
// canonical lead. Everything here is a pure function of its inputs.
package duplicates

import (
	"lead_quality_backend/internal/leads/domain"
	"lead_quality_backend/internal/leads/textmatch"
	"lead_quality_backend/platform/phone"
)

// Field weights for the overall similarity. They sum to 1.
const (
	weightEmail   = 0.40
	weightName    = 0.30
	weightCompany = 0.15
	weightPhone   = 0.15
)

// Similarity holds per-field and overall scores on a 0-100 scale.
type Similarity struct {
	Overall float64 `json:"overall"`
	Email   float64 `json:"email"`
	Name    float64 `json:"name"`
	Company float64 `json:"company"`
	Phone   float64 `json:"phone"`
}

// Compare scores how likely a and b describe the same contact.
func Compare(a, b domain.Lead) Similarity {
	s := Similarity{
		Email:   textmatch.ExactMatch(a.Email, b.Email),
		Name:    textmatch.NormalizedSimilarity(nameKey(a), nameKey(b)),
		Company: textmatch.NormalizedSimilarity(a.CompanyName, b.CompanyName),
		Phone:   phoneMatch(a.Phone, b.Phone),
	}
	s.Overall = s.Email*weightEmail + s.Name*weightName + s.Company*weightCompany + s.Phone*weightPhone
	return s
}

func nameKey(l domain.Lead) string {
	return l.FirstName + " " + l.LastName
}

func phoneMatch(a, b string) float64 {
	ka, kb := phone.MatchKey(a), phone.MatchKey(b)
	if ka == "" || ka != kb {
		return 0
	}
	return 100
}

// sameField reports whether every lead carries the same non-empty value for f.
func sameField(leads []domain.Lead, f domain.MatchField) bool {
	first := fieldKey(leads[0], f)
	if first == "" {
		return false
	}
	for _, l := range leads[1:] {
		if fieldKey(l, f) != first {
			return false
		}
	}
	return true
}

func fieldKey(l domain.Lead, f domain.MatchField) string {
	switch f {
	case domain.MatchFieldEmail:
		return textmatch.Normalize(l.Email)
	case domain.MatchFieldName:
		return textmatch.Normalize(nameKey(l))
	case domain.MatchFieldCompany:
		return textmatch.Normalize(l.CompanyName)
	case domain.MatchFieldPhone:
		return phone.MatchKey(l.Phone)
	default:
		return ""
	}
}
