package duplicates

import (
	"math"
	"testing"

	"lead_quality_backend/internal/leads/domain"
)

func fullLead(id string) domain.Lead {
	return domain.Lead{
		ID:          id,
		Email:       "pat@acme.com",
		FirstName:   "Pat",
		LastName:    "Jones",
		CompanyName: "Acme",
		Phone:       "+1 (650) 253-0000",
	}
}

func TestCompareEmailIgnoresCaseAndSpace(t *testing.T) {
	a := domain.Lead{ID: "a", Email: "A@B.com", FirstName: "Ann"}
	b := domain.Lead{ID: "b", Email: " a@b.com", FirstName: "Bob"}

	if got := Compare(a, b).Email; got != 100 {
		t.Fatalf("expected email similarity 100, got %v", got)
	}
}

func TestCompareIsSymmetric(t *testing.T) {
	leads := []domain.Lead{
		fullLead("a"),
		{ID: "b", Email: "PAT@acme.com", FirstName: "Patrick", LastName: "Jones", CompanyName: "Acme Inc"},
		{ID: "c", Email: "chris@globex.com", FirstName: "Chris", LastName: "Wu", Phone: "650.253.0000"},
		{ID: "d"},
	}
	for i := range leads {
		for j := range leads {
			ab, ba := Compare(leads[i], leads[j]), Compare(leads[j], leads[i])
			if ab != ba {
				t.Fatalf("similarity(%s,%s)=%+v but similarity(%s,%s)=%+v", leads[i].ID, leads[j].ID, ab, leads[j].ID, leads[i].ID, ba)
			}
		}
	}
}

func TestCompareSelfIsPerfect(t *testing.T) {
	l := fullLead("a")
	if got := Compare(l, l).Overall; math.Abs(got-100) > 1e-9 {
		t.Fatalf("expected self-similarity 100, got %v", got)
	}
}

func TestCompareNameUsesEditDistance(t *testing.T) {
	a := domain.Lead{FirstName: "John", LastName: "Smith"}
	b := domain.Lead{FirstName: "john", LastName: "SMYTH"}

	// a single substitution across ten runes
	if got := Compare(a, b).Name; math.Abs(got-90) > 1e-9 {
		t.Fatalf("expected name similarity 90, got %v", got)
	}
}

func TestComparePhoneStripsFormattingAndCountryCode(t *testing.T) {
	a := domain.Lead{Phone: "+1 (650) 253-0000"}
	b := domain.Lead{Phone: "650.253.0000"}
	if got := Compare(a, b).Phone; got != 100 {
		t.Fatalf("expected phone similarity 100, got %v", got)
	}

	b.Phone = "650.253.0001"
	if got := Compare(a, b).Phone; got != 0 {
		t.Fatalf("expected phone similarity 0, got %v", got)
	}

	if got := Compare(domain.Lead{}, domain.Lead{}).Phone; got != 0 {
		t.Fatalf("expected empty phones not to match, got %v", got)
	}
}

func TestCompareCompanyNeedsBothValues(t *testing.T) {
	a := domain.Lead{CompanyName: "Acme"}
	b := domain.Lead{}
	if got := Compare(a, b).Company; got != 0 {
		t.Fatalf("expected 0 when one company is missing, got %v", got)
	}
}
