// Package profile turns raw student input into the normalized profile the
// matcher consumes.
package profile

import (
	"fmt"

	"github.com/spigell/unifit/internal/catalog"
	"github.com/spigell/unifit/internal/textutil"
)

// TestKind tells which admission test a score belongs to.
type TestKind int

const (
	TestNone TestKind = iota
	TestSAT
	TestACT
)

func (k TestKind) String() string {
	switch k {
	case TestSAT:
		return "SAT"
	case TestACT:
		return "ACT"
	default:
		return "None"
	}
}

// Score ranges.
const (
	MinSAT = 400
	MaxSAT = 1600
	MinACT = 1
	MaxACT = 36
)

// TestScore is a tagged score: SAT, ACT or none. The inactive test is absent,
// never zero.
type TestScore struct {
	Kind  TestKind `json:"kind"`
	Value int      `json:"value,omitempty"`
}

// SAT returns an SAT score.
func SAT(v int) TestScore { return TestScore{Kind: TestSAT, Value: v} }

// ACT returns an ACT score.
func ACT(v int) TestScore { return TestScore{Kind: TestACT, Value: v} }

// NoScore returns the absent score.
func NoScore() TestScore { return TestScore{} }

// SAT returns the SAT value when the score is an SAT score.
func (t TestScore) SAT() (int, bool) {
	return t.Value, t.Kind == TestSAT
}

// ACT returns the ACT value when the score is an ACT score.
func (t TestScore) ACT() (int, bool) {
	return t.Value, t.Kind == TestACT
}

func (t TestScore) String() string {
	if t.Kind == TestNone {
		return "None"
	}
	return fmt.Sprintf("%s(%d)", t.Kind, t.Value)
}

// Selectivity is the admission-likelihood strategy a student picks.
type Selectivity int

const (
	SelectivityAll Selectivity = iota
	SafetySchools
	TargetSchools
	ReachSchools
)

func (s Selectivity) String() string {
	switch s {
	case SafetySchools:
		return "Safety Schools"
	case TargetSchools:
		return "Target Schools"
	case ReachSchools:
		return "Reach Schools"
	default:
		return "All"
	}
}

// Valid reports whether s is a known strategy.
func (s Selectivity) Valid() bool {
	return s >= SelectivityAll && s <= ReachSchools
}

// MarshalText renders the label.
func (s Selectivity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a label with ParseSelectivity.
func (s *Selectivity) UnmarshalText(text []byte) error {
	v, err := ParseSelectivity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSelectivity accepts "Safety Schools", "safety", "target", "reach" and
// "all" in any case or separator style.
func ParseSelectivity(s string) (Selectivity, error) {
	switch textutil.Key(s) {
	case "safety", "safetyschool", "safetyschools":
		return SafetySchools, nil
	case "target", "targetschool", "targetschools":
		return TargetSchools, nil
	case "reach", "reachschool", "reachschools":
		return ReachSchools, nil
	case "all":
		return SelectivityAll, nil
	default:
		return 0, fmt.Errorf("unknown selectivity preference %q", s)
	}
}

// TestPolicyPreference is the student's stance on test-score policies.
type TestPolicyPreference int

const (
	TestPolicyAny TestPolicyPreference = iota
	TestOptionalFlexible
	TestRequiredOnly
)

func (p TestPolicyPreference) String() string {
	switch p {
	case TestOptionalFlexible:
		return "Test Optional/Flexible"
	case TestRequiredOnly:
		return "Test Required"
	default:
		return "Any"
	}
}

// Valid reports whether p is a known preference.
func (p TestPolicyPreference) Valid() bool {
	return p >= TestPolicyAny && p <= TestRequiredOnly
}

// MarshalText renders the label.
func (p TestPolicyPreference) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText parses a label with ParseTestPolicyPreference.
func (p *TestPolicyPreference) UnmarshalText(text []byte) error {
	v, err := ParseTestPolicyPreference(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParseTestPolicyPreference accepts "Any", "Test Optional/Flexible" (or
// "optional", "flexible") and "Test Required" (or "required").
func ParseTestPolicyPreference(s string) (TestPolicyPreference, error) {
	switch textutil.Key(s) {
	case "any":
		return TestPolicyAny, nil
	case "testoptionalflexible", "testoptional", "optional", "flexible", "optionalflexible":
		return TestOptionalFlexible, nil
	case "testrequired", "required":
		return TestRequiredOnly, nil
	default:
		return 0, fmt.Errorf("unknown test policy preference %q", s)
	}
}

// Matches reports whether an institution policy satisfies the preference.
// Any matches nothing in particular and reports false.
func (p TestPolicyPreference) Matches(policy catalog.TestPolicy) bool {
	switch p {
	case TestRequiredOnly:
		return policy == catalog.TestRequired
	case TestOptionalFlexible:
		return policy.Flexible()
	default:
		return false
	}
}

// GPAScale is the scale a GPA was entered on.
type GPAScale int

const (
	GPAScale4 GPAScale = iota
	GPAScale5
	GPAScale100
)

// Max is the top of the scale.
func (s GPAScale) Max() float64 {
	switch s {
	case GPAScale5:
		return 5.0
	case GPAScale100:
		return 100.0
	default:
		return 4.0
	}
}

func (s GPAScale) String() string {
	switch s {
	case GPAScale5:
		return "5.0"
	case GPAScale100:
		return "100"
	default:
		return "4.0"
	}
}

// ParseGPAScale accepts "4.0", "4", "5.0", "5" and "100".
func ParseGPAScale(s string) (GPAScale, error) {
	switch textutil.Key(s) {
	case "40", "4":
		return GPAScale4, nil
	case "50", "5":
		return GPAScale5, nil
	case "100", "1000":
		return GPAScale100, nil
	default:
		return 0, fmt.Errorf("unknown gpa scale %q", s)
	}
}
