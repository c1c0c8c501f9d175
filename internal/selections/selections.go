// Package selections holds the student's shortlist and comparison set as a
// value passed into and returned from a search.
package selections

import (
	"slices"

	"github.com/spigell/unifit/internal/scoring"
)

// UserSelections is the shortlist and the subset picked for side-by-side
// comparison. Methods never modify the receiver; they return an updated
// copy. Ids keep insertion order.
type UserSelections struct {
	Shortlisted []int `json:"shortlisted" yaml:"shortlisted"`
	Compared    []int `json:"compared" yaml:"compared"`
}

// IsShortlisted reports whether id is on the shortlist.
func (s UserSelections) IsShortlisted(id int) bool {
	return slices.Contains(s.Shortlisted, id)
}

// IsCompared reports whether id is selected for comparison.
func (s UserSelections) IsCompared(id int) bool {
	return slices.Contains(s.Compared, id)
}

// Add puts ids on the shortlist, skipping those already present.
func (s UserSelections) Add(ids ...int) UserSelections {
	out := s.clone()
	out.Shortlisted = appendMissing(out.Shortlisted, ids)
	return out
}

// Remove takes ids off the shortlist and out of the comparison set.
func (s UserSelections) Remove(ids ...int) UserSelections {
	out := s.clone()
	drop := func(id int) bool { return slices.Contains(ids, id) }
	out.Shortlisted = slices.DeleteFunc(out.Shortlisted, drop)
	out.Compared = slices.DeleteFunc(out.Compared, drop)
	return out
}

// Toggle adds id when absent and removes it when present.
func (s UserSelections) Toggle(id int) UserSelections {
	if s.IsShortlisted(id) {
		return s.Remove(id)
	}
	return s.Add(id)
}

// Clear empties the shortlist and the comparison set.
func (s UserSelections) Clear() UserSelections {
	return UserSelections{}
}

// Compare selects shortlisted ids for comparison. Ids that are not on the
// shortlist are ignored.
func (s UserSelections) Compare(ids ...int) UserSelections {
	out := s.clone()
	keep := slices.DeleteFunc(slices.Clone(ids), func(id int) bool { return !s.IsShortlisted(id) })
	out.Compared = appendMissing(out.Compared, keep)
	return out
}

// CompareAll selects the whole shortlist for comparison.
func (s UserSelections) CompareAll() UserSelections {
	out := s.clone()
	out.Compared = slices.Clone(out.Shortlisted)
	return out
}

// SeedShortlist adds every candidate of a result to the shortlist in rank
// order.
func (s UserSelections) SeedShortlist(candidates []scoring.Candidate) UserSelections {
	ids := make([]int, 0, len(candidates))
	for _, c := range candidates {
		if c.Institution != nil {
			ids = append(ids, c.Institution.ID)
		}
	}
	return s.Add(ids...)
}

func (s UserSelections) clone() UserSelections {
	return UserSelections{
		Shortlisted: slices.Clone(s.Shortlisted),
		Compared:    slices.Clone(s.Compared),
	}
}

func appendMissing(dst, ids []int) []int {
	for _, id := range ids {
		if !slices.Contains(dst, id) {
			dst = append(dst, id)
		}
	}
	return dst
}
