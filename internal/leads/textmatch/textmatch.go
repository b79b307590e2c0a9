// Package textmatch holds the string normalization and edit-distance
// similarity used by duplicate detection.
package textmatch

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Normalize lowercases and trims s.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Distance is the classic Levenshtein distance with unit costs for
// insertion, deletion and substitution, counted in runes.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Similarity returns (max(len) - distance) / max(len) scaled to 0-100.
// Identical strings score 100; an empty operand scores 0.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}

	return float64(longest-Distance(a, b)) / float64(longest) * 100
}

// NormalizedSimilarity normalizes both operands before comparing them.
func NormalizedSimilarity(a, b string) float64 {
	return Similarity(Normalize(a), Normalize(b))
}

// ExactMatch scores 100 when the normalized operands are equal and non-empty.
func ExactMatch(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" || na != nb {
		return 0
	}
	return 100
}
