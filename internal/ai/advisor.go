// Package ai defines the optional language-model advisor that narrates a
// ranked result.
package ai

import (
	"context"

	"github.com/spigell/unifit/internal/profile"
	"github.com/spigell/unifit/internal/scoring"
)

// Highlight is a short note about one ranked institution.
type Highlight struct {
	InstitutionID int    `json:"institution_id"`
	Note          string `json:"note"`
}

// Summary is the advisor's narrative for a result set.
type Summary struct {
	Text       string      `json:"text"`
	Highlights []Highlight `json:"highlights,omitempty"`
	Raw        string      `json:"-"`
}

// Advisor writes a narrative summary of ranked candidates for a profile.
// It never changes scores or ordering.
type Advisor interface {
	Summarize(ctx context.Context, p *profile.Profile, candidates []scoring.Candidate) (*Summary, error)
}
