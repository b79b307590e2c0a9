package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := map[string]string{
		"  Same   person\n\tdifferent inbox ": "Same person different inbox",
		"<b>merged</b> by rule":               "merged by rule",
		"&lt;script&gt;x&lt;/script&gt;ok":    "xok",
		"":                                    "",
	}
	for in, want := range cases {
		if got := Text(in); got != want {
			t.Fatalf("Text(%q): expected %q, got %q", in, want, got)
		}
	}
}
