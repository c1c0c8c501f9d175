// Package textutil normalizes free-form labels coming from datasets and
// user input so they can be compared reliably.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC normalization, drops control characters and
// collapses runs of whitespace into a single space.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Key returns a case-folded form of s with everything except letters and
// digits removed. "Safety Schools", "safety_schools" and "SAFETY-SCHOOLS"
// share one key.
func Key(s string) string {
	folded := cases.Fold().String(Normalize(s))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Dedupe normalizes values and removes empty entries and duplicates by Key,
// keeping the first spelling seen.
func Dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = Normalize(v)
		if v == "" {
			continue
		}
		k := Key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
