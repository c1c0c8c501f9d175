package scoring

import (
	"fmt"

	"github.com/spigell/unifit/internal/profile"
)

// Narrative thresholds.
const (
	strongPoint = 75.0
	fairPoint   = 50.0
)

// Explain returns short plain-text statements describing why c scored the
// way it did for p. Callers usually show the first few.
func Explain(c Candidate, p *profile.Profile) []string {
	s := c.SubScores
	var points []string

	switch {
	case s.Academic >= strongPoint:
		points = append(points, "Strong academic fit.")
	case s.Academic >= fairPoint:
		points = append(points, "Good academic fit.")
	default:
		points = append(points, "Academics may be a stretch or mismatch.")
	}

	if p.HasMajorPreference() {
		switch s.Major {
		case MaxScore:
			points = append(points, fmt.Sprintf("Offers field: %s.", p.Major))
		case MismatchScore:
			points = append(points, fmt.Sprintf("Field %s may not be offered or data missing.", p.Major))
		}
	}

	if p.HasLocationPreference() {
		if s.Location == MaxScore {
			points = append(points, "In preferred location(s).")
		} else {
			points = append(points, "Not in preferred location(s).")
		}
	}

	switch {
	case s.Financial >= strongPoint:
		points = append(points, "Good financial fit (net price).")
	case s.Financial >= fairPoint:
		points = append(points, "Fair financial fit (net price).")
	default:
		points = append(points, "Net price may be a concern.")
	}

	switch {
	case s.Selectivity >= strongPoint:
		points = append(points, fmt.Sprintf("Aligns well with '%s' preference.", p.Selectivity))
	case s.Selectivity >= fairPoint:
		points = append(points, fmt.Sprintf("Fair alignment with '%s' preference.", p.Selectivity))
	default:
		points = append(points, fmt.Sprintf("May not align with '%s' preference.", p.Selectivity))
	}

	if p.TestPolicy != profile.TestPolicyAny && c.Institution.TestPolicy != nil {
		switch {
		case s.TestPolicy >= strongPoint:
			points = append(points, "Test score policy matches your preference.")
		case s.TestPolicy >= fairPoint:
			points = append(points, "Test score policy partially matches your preference.")
		default:
			points = append(points, "Test score policy may not match your preference.")
		}
	}

	if c.Institution.TestPolicy != nil {
		points = append(points, c.Institution.TestPolicy.String()+".")
	}

	return points
}
