// Package scoring computes the per-criterion sub-scores of an institution
// against a student profile and folds them into one match score.
package scoring

import (
	"math"

	"github.com/spigell/unifit/internal/catalog"
	"github.com/spigell/unifit/internal/fos"
	"github.com/spigell/unifit/internal/profile"
)

// Category thresholds on the overall match score.
const (
	StrongMatchThreshold = 80
	GoodMatchThreshold   = 60
	FairMatchThreshold   = 40
)

// Sub-score constants.
const (
	MinScore          = 0.0
	MaxScore          = 100.0
	NeutralScore      = 50.0
	NoPreferenceScore = 75.0
	MismatchScore     = 25.0
)

// Category is the qualitative label derived from a match score.
type Category string

const (
	StrongMatch    Category = "Strong Match"
	GoodMatch      Category = "Good Match"
	FairMatch      Category = "Fair Match"
	PotentialMatch Category = "Potential Match"
)

// CategoryFor maps a match score to its category.
func CategoryFor(score int) Category {
	switch {
	case score >= StrongMatchThreshold:
		return StrongMatch
	case score >= GoodMatchThreshold:
		return GoodMatch
	case score >= FairMatchThreshold:
		return FairMatch
	default:
		return PotentialMatch
	}
}

// SubScores holds the six criterion scores, each in [0, 100].
type SubScores struct {
	Academic    float64 `json:"academic"`
	Selectivity float64 `json:"selectivity"`
	Location    float64 `json:"location"`
	Major       float64 `json:"major"`
	Financial   float64 `json:"financial"`
	TestPolicy  float64 `json:"test_policy"`
}

// Preference is the mean of the location, major, financial and test-policy
// scores.
func (s SubScores) Preference() float64 {
	return (s.Location + s.Major + s.Financial + s.TestPolicy) / 4
}

// Candidate is an institution scored against one profile.
type Candidate struct {
	Institution *catalog.Institution `json:"institution"`
	SubScores   SubScores            `json:"sub_scores"`
	Preference  float64              `json:"preference"`
	MatchScore  int                  `json:"match_score"`
	Category    Category             `json:"match_category"`
}

// Scorer scores institutions against a profile. It holds only read-only
// state and is safe for concurrent use.
type Scorer struct {
	programs *fos.Index
	weights  Weights
}

// New returns a Scorer. A nil index scores every major preference as if no
// program data were available.
func New(programs *fos.Index, weights Weights) *Scorer {
	return &Scorer{programs: programs, weights: weights}
}

// Weights returns the weights the scorer combines sub-scores with.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score computes every sub-score of inst for p and the overall match.
func (s *Scorer) Score(inst *catalog.Institution, p *profile.Profile) Candidate {
	sub := SubScores{
		Academic:    Academic(p.TestScore, inst, p.Selectivity),
		Selectivity: Selectivity(inst.AdmissionRate, p.Selectivity),
		Location:    Location(inst, p),
		Major:       Major(s.programs, inst.ID, p),
		Financial:   Financial(inst, p.IncomeBracket, p.MaxNetPrice),
		TestPolicy:  TestPolicy(inst.TestPolicy, p.TestPolicy),
	}
	pref := sub.Preference()
	match := Overall(sub.Academic, sub.Selectivity, pref, s.weights)

	return Candidate{
		Institution: inst,
		SubScores:   sub,
		Preference:  pref,
		MatchScore:  match,
		Category:    CategoryFor(match),
	}
}

// ScoreAll scores institutions in order.
func (s *Scorer) ScoreAll(institutions []*catalog.Institution, p *profile.Profile) []Candidate {
	out := make([]Candidate, 0, len(institutions))
	for _, inst := range institutions {
		out = append(out, s.Score(inst, p))
	}
	return out
}

// Overall combines the academic, selectivity and preference scores with w,
// rounds half to even and clamps to [0, 100].
func Overall(academic, selectivity, preference float64, w Weights) int {
	total := academic*w.Academic + selectivity*w.Selectivity + preference*w.Preference
	return int(clamp(math.RoundToEven(total)))
}

// Academic scores the student's test score against the institution's
// average on the same test. Without a comparable pair it is neutral.
func Academic(score profile.TestScore, inst *catalog.Institution, pref profile.Selectivity) float64 {
	if sat, ok := score.SAT(); ok && inst.SATAvg != nil {
		return academicSAT(float64(sat-*inst.SATAvg), pref)
	}
	if act, ok := score.ACT(); ok && inst.ACTMedian != nil {
		return academicACT(float64(act-*inst.ACTMedian), pref)
	}
	return NeutralScore
}

func academicSAT(diff float64, pref profile.Selectivity) float64 {
	switch pref {
	case profile.SafetySchools:
		return clamp(50 + diff/10)
	case profile.TargetSchools:
		return clamp(100 - math.Abs(diff)/5)
	case profile.ReachSchools:
		return clamp(100 - math.Abs(diff+100)/10)
	case profile.SelectivityAll:
		return clamp(75 + diff/20)
	}
	return NeutralScore
}

func academicACT(diff float64, pref profile.Selectivity) float64 {
	switch pref {
	case profile.SafetySchools:
		return clamp(50 + diff*10)
	case profile.TargetSchools:
		return clamp(100 - math.Abs(diff)*20)
	case profile.ReachSchools:
		return clamp(100 - math.Abs(diff+2)*20)
	case profile.SelectivityAll:
		return clamp(75 + diff*5)
	}
	return NeutralScore
}

// Selectivity scores the admission rate against the student's strategy.
// "All" is a flat 75 whether or not the rate is known.
func Selectivity(rate *float64, pref profile.Selectivity) float64 {
	if pref == profile.SelectivityAll {
		return NoPreferenceScore
	}
	if rate == nil {
		return NeutralScore
	}
	r := *rate
	switch pref {
	case profile.SafetySchools:
		return clamp(50 + r*100)
	case profile.TargetSchools:
		return clamp(100 - math.Abs(0.35-r)*300)
	case profile.ReachSchools:
		return clamp(100 - r*250)
	}
	return NeutralScore
}

// Location is 100 inside the preferred states, 0 outside and 75 without a
// preference.
func Location(inst *catalog.Institution, p *profile.Profile) float64 {
	if !p.HasLocationPreference() {
		return NoPreferenceScore
	}
	if inst.InState(p.LocationSet()) {
		return MaxScore
	}
	return MinScore
}

// Major is 100 when the institution offers the requested program, 25 when it
// does not and 75 without a preference. An empty index cannot tell and is
// treated like no preference.
func Major(programs *fos.Index, id int, p *profile.Profile) float64 {
	if !p.HasMajorPreference() || programs.Empty() {
		return NoPreferenceScore
	}
	if programs.Offers(id, p.Major) {
		return MaxScore
	}
	return MismatchScore
}

// Financial compares the bracket net price to the student's ceiling. A
// public institution without a public figure falls back to the private one.
func Financial(inst *catalog.Institution, bracket catalog.IncomeBracket, maxNetPrice float64) float64 {
	if !bracket.Valid() {
		return NeutralScore
	}
	price, ok := inst.SelectedNetPrice(bracket)
	if !ok && inst.Public() {
		price, ok = inst.NetPrice.Get(bracket, catalog.SectorPrivate)
	}
	if !ok {
		return NeutralScore
	}
	switch {
	case price <= maxNetPrice*0.5:
		return MaxScore
	case price <= maxNetPrice:
		return NoPreferenceScore
	case price <= maxNetPrice*1.25:
		return NeutralScore
	default:
		return MismatchScore
	}
}

// TestPolicy scores the institution's test policy against the preference.
func TestPolicy(policy *catalog.TestPolicy, pref profile.TestPolicyPreference) float64 {
	if policy == nil {
		return NeutralScore
	}
	switch pref {
	case profile.TestPolicyAny:
		return NoPreferenceScore
	case profile.TestOptionalFlexible, profile.TestRequiredOnly:
		if pref.Matches(*policy) {
			return MaxScore
		}
		return MismatchScore
	}
	return NeutralScore
}

func clamp(v float64) float64 {
	return math.Min(MaxScore, math.Max(MinScore, v))
}
