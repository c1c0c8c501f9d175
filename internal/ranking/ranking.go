// Package ranking orders scored candidates into the final top-N list.
package ranking

import (
	"sort"

	"github.com/spigell/unifit/internal/scoring"
)

// DefaultLimit is the size of the result list when none is configured.
const DefaultLimit = 30

// Rank returns a new slice with candidates sorted by match score, highest
// first. Equal scores keep their input order. Categories are re-derived from
// the match score. A limit of zero or less keeps every candidate.
func Rank(candidates []scoring.Candidate, limit int) []scoring.Candidate {
	out := make([]scoring.Candidate, len(candidates))
	copy(out, candidates)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchScore > out[j].MatchScore
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit:limit]
	}
	for i := range out {
		out[i].Category = scoring.CategoryFor(out[i].MatchScore)
	}
	return out
}
