package scoring

import (
	"encoding/json"
	"testing"
)

func TestParseBudget(t *testing.T) {
	cases := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{"$75,000", 75000, true},
		{"50k", 50000, true},
		{"$1.5K", 1500, true},
		{"$ 1,250,000.00", 1250000, true},
		{"around 120000 USD", 120000, true},
		{"between 10k and 20k", 10000, true},
		{"TBD", 0, false},
		{"", 0, false},
		{42000.0, 42000, true},
		{-5.0, -5, false},
		{json.Number("30000"), 30000, true},
		{true, 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseBudget(tc.in)
		if ok != tc.wantOK {
			t.Fatalf("ParseBudget(%v): expected ok=%v, got %v", tc.in, tc.wantOK, ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseBudget(%v): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestBudgetScore(t *testing.T) {
	cases := map[float64]float64{
		250000: 95,
		100000: 95,
		75000:  85,
		25000:  70,
		10000:  55,
		9999:   30,
	}
	for amount, want := range cases {
		if got := budgetScore(amount); got != want {
			t.Fatalf("budgetScore(%v): expected %v, got %v", amount, want, got)
		}
	}
}
