package scoring

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// budgetPattern matches "$75,000", "75000.50", "50k", "$ 1.5K".
var budgetPattern = regexp.MustCompile(`\$?\s*(\d{1,3}(?:,\d{3})+|\d+)(?:\.(\d+))?\s*([kK])?`)

// ParseBudget extracts a monetary amount from a free-text budget value.
// The first amount in the text wins. Numbers decoded from JSON are used as is.
func ParseBudget(v any) (float64, bool) {
	switch b := v.(type) {
	case string:
		return parseBudgetText(b)
	case float64:
		return b, b >= 0
	case int:
		return float64(b), b >= 0
	case int64:
		return float64(b), b >= 0
	case json.Number:
		f, err := b.Float64()
		if err != nil {
			return 0, false
		}
		return f, f >= 0
	default:
		return 0, false
	}
}

func parseBudgetText(s string) (float64, bool) {
	m := budgetPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	number := strings.ReplaceAll(m[1], ",", "")
	if m[2] != "" {
		number += "." + m[2]
	}
	amount, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, false
	}
	if m[3] != "" {
		amount *= 1000
	}
	return amount, true
}

// budgetScore maps an amount onto the budget alignment scale.
func budgetScore(amount float64) float64 {
	switch {
	case amount >= 100_000:
		return 95
	case amount >= 50_000:
		return 85
	case amount >= 25_000:
		return 70
	case amount >= 10_000:
		return 55
	default:
		return 30
	}
}
