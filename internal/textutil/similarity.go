package textutil

import "github.com/pmezard/go-difflib/difflib"

// Ratio returns the sequence-matcher similarity of a and b in [0, 1],
// computed over runes: 2*M/T where M is the number of matched runes and T
// the combined length. Two empty strings are identical.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	m := difflib.NewMatcher(runes(a), runes(b))
	return m.Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
