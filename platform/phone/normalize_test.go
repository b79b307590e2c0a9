package phone

import "testing"

func TestMatchKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"(555) 123-4567", "5551234567"},
		{"+1 555 123 4567", "5551234567"},
		{"1-555-123-4567", "5551234567"},
		{"555.123.4567", "5551234567"},
		{"", ""},
		{"n/a", ""},
	}

	for _, tc := range cases {
		if got := MatchKey(tc.in); got != tc.want {
			t.Fatalf("MatchKey(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestNormalizeE164(t *testing.T) {
	if got := NormalizeE164("(650) 253-0000", "US"); got != "+16502530000" {
		t.Fatalf("expected +16502530000, got %q", got)
	}
	if got := NormalizeE164("  not a phone ", "US"); got != "not a phone" {
		t.Fatalf("expected trimmed input back, got %q", got)
	}
	if got := NormalizeE164("", ""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
