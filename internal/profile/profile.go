package profile

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/unifit/internal/catalog"
	"github.com/spigell/unifit/internal/textutil"
)

const (
	// AnyMajor is the program value meaning "no major preference".
	AnyMajor = "Any"
	// DefaultMaxNetPrice is used when an input leaves the ceiling unset.
	DefaultMaxNetPrice = 25000.0
)

// Input is a raw search submission as it arrives from a form, a CLI, a
// config file or an API request.
type Input struct {
	TestType         string   `mapstructure:"test-type" yaml:"test_type" json:"test_type,omitempty"`
	SAT              int      `mapstructure:"sat" yaml:"sat" json:"sat,omitempty"`
	ACT              int      `mapstructure:"act" yaml:"act" json:"act,omitempty"`
	GPA              float64  `mapstructure:"gpa" yaml:"gpa" json:"gpa,omitempty"`
	GPAScale         string   `mapstructure:"gpa-scale" yaml:"gpa_scale" json:"gpa_scale,omitempty"`
	States           []string `mapstructure:"states" yaml:"states" json:"states,omitempty"`
	InstitutionTypes []string `mapstructure:"institution-types" yaml:"institution_types" json:"institution_types,omitempty"`
	Major            string   `mapstructure:"major" yaml:"major" json:"major,omitempty"`
	IncomeBracket    string   `mapstructure:"income-bracket" yaml:"income_bracket" json:"income_bracket,omitempty"`
	MaxNetPrice      *float64 `mapstructure:"max-net-price" yaml:"max_net_price" json:"max_net_price,omitempty"`
	TestPolicy       string   `mapstructure:"test-policy" yaml:"test_policy" json:"test_policy,omitempty"`
	Selectivity      string   `mapstructure:"selectivity" yaml:"selectivity" json:"selectivity,omitempty"`
}

// Profile is the normalized, validated form of an Input. It is consumed by
// one search and not mutated afterwards.
type Profile struct {
	TestScore        TestScore             `json:"test_score"`
	GPA              float64               `json:"gpa_4_scale"`
	Locations        []string              `json:"location_preference,omitempty"`
	InstitutionTypes []catalog.ControlType `json:"institution_type_preference,omitempty"`
	Major            string                `json:"major_interest,omitempty"`
	IncomeBracket    catalog.IncomeBracket `json:"family_income_bracket"`
	MaxNetPrice      float64               `json:"max_net_price"`
	TestPolicy       TestPolicyPreference  `json:"test_policy_preference"`
	Selectivity      Selectivity           `json:"selectivity_preference"`
	locationKeys     map[string]struct{}
}

// Validate checks a Profile built outside Normalize. It reports the same
// ValidationErrors Normalize does for out-of-range values.
func (p *Profile) Validate() error {
	if p == nil {
		return ValidationErrors{{Field: "profile", Reason: "is required"}}
	}

	var errs ValidationErrors
	switch p.TestScore.Kind {
	case TestSAT:
		if v := p.TestScore.Value; v < MinSAT || v > MaxSAT {
			errs.add("sat", strconv.Itoa(v), "must be within [%d, %d]", MinSAT, MaxSAT)
		}
	case TestACT:
		if v := p.TestScore.Value; v < MinACT || v > MaxACT {
			errs.add("act", strconv.Itoa(v), "must be within [%d, %d]", MinACT, MaxACT)
		}
	case TestNone:
	default:
		errs.add("test_type", strconv.Itoa(int(p.TestScore.Kind)), "must be one of SAT, ACT, None")
	}
	if math.IsNaN(p.GPA) || p.GPA < 0 || p.GPA > 4 {
		errs.add("gpa", strconv.FormatFloat(p.GPA, 'f', -1, 64), "must be within [0, 4.0]")
	}
	for _, t := range p.InstitutionTypes {
		if !t.Valid() {
			errs.add("institution_types", strconv.Itoa(int(t)), "unknown institution type")
		}
	}
	if !p.IncomeBracket.Valid() {
		errs.add("income_bracket", strconv.Itoa(int(p.IncomeBracket)), "unknown income bracket")
	}
	if v := p.MaxNetPrice; math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		errs.add("max_net_price", strconv.FormatFloat(v, 'f', -1, 64), "must be a non-negative amount")
	}
	if !p.TestPolicy.Valid() {
		errs.add("test_policy", strconv.Itoa(int(p.TestPolicy)), "unknown test policy preference")
	}
	if !p.Selectivity.Valid() {
		errs.add("selectivity", strconv.Itoa(int(p.Selectivity)), "unknown selectivity preference")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// HasLocationPreference reports whether any state was chosen.
func (p *Profile) HasLocationPreference() bool {
	return len(p.Locations) > 0
}

// LocationSet returns the preferred states keyed for Institution.InState.
func (p *Profile) LocationSet() map[string]struct{} {
	if p.locationKeys == nil {
		keys := make(map[string]struct{}, len(p.Locations))
		for _, name := range p.Locations {
			keys[textutil.Key(name)] = struct{}{}
		}
		return keys
	}
	return p.locationKeys
}

// HasMajorPreference reports whether a specific program was requested.
func (p *Profile) HasMajorPreference() bool {
	return p.Major != "" && !strings.EqualFold(p.Major, AnyMajor)
}

// ConvertGPA converts a GPA on scale to the 4.0 scale and clamps the result
// to [0, 4].
func ConvertGPA(gpa float64, scale GPAScale) float64 {
	converted := gpa
	switch scale {
	case GPAScale5:
		converted = gpa * 4.0 / 5.0
	case GPAScale100:
		converted = gpa * 4.0 / 100.0
	}
	return math.Min(4, math.Max(0, converted))
}

// Normalize validates in and builds a Profile. Every structural problem is
// reported in a ValidationErrors value; unknown enum values are rejected, not
// replaced by a default. Empty enum fields take the documented defaults
// (All, Any, NPT43, 4.0 scale).
func Normalize(in Input) (*Profile, error) {
	var errs ValidationErrors

	p := &Profile{
		Selectivity:   SelectivityAll,
		TestPolicy:    TestPolicyAny,
		IncomeBracket: catalog.DefaultIncomeBracket,
		MaxNetPrice:   DefaultMaxNetPrice,
	}

	p.TestScore = normalizeTestScore(in, &errs)

	scale := GPAScale4
	if strings.TrimSpace(in.GPAScale) != "" {
		s, err := ParseGPAScale(in.GPAScale)
		if err != nil {
			errs.add("gpa_scale", in.GPAScale, "must be one of 4.0, 5.0, 100")
		}
		scale = s
	}
	if math.IsNaN(in.GPA) || in.GPA < 0 || in.GPA > scale.Max() {
		errs.add("gpa", strconv.FormatFloat(in.GPA, 'f', -1, 64), "must be within [0, %s]", scale)
	} else {
		p.GPA = ConvertGPA(in.GPA, scale)
	}

	for _, s := range textutil.Dedupe(in.States) {
		if name, ok := catalog.CanonicalState(s); ok {
			s = name
		}
		p.Locations = append(p.Locations, s)
	}
	p.Locations = textutil.Dedupe(p.Locations)
	sort.Strings(p.Locations)
	p.locationKeys = p.LocationSet()

	seenTypes := make(map[catalog.ControlType]bool)
	for _, raw := range in.InstitutionTypes {
		t, err := catalog.ParseControlType(raw)
		if err != nil {
			errs.add("institution_types", raw, "unknown institution type")
			continue
		}
		if !seenTypes[t] {
			seenTypes[t] = true
			p.InstitutionTypes = append(p.InstitutionTypes, t)
		}
	}
	sort.Slice(p.InstitutionTypes, func(i, j int) bool { return p.InstitutionTypes[i] < p.InstitutionTypes[j] })

	if major := textutil.Normalize(in.Major); major != "" && !strings.EqualFold(major, AnyMajor) {
		p.Major = major
	}

	if strings.TrimSpace(in.IncomeBracket) != "" {
		b, err := catalog.ParseIncomeBracket(in.IncomeBracket)
		if err != nil {
			errs.add("income_bracket", in.IncomeBracket, "unknown income bracket")
		}
		p.IncomeBracket = b
	}

	if in.MaxNetPrice != nil {
		v := *in.MaxNetPrice
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			errs.add("max_net_price", strconv.FormatFloat(v, 'f', -1, 64), "must be a non-negative amount")
		}
		p.MaxNetPrice = v
	}

	if strings.TrimSpace(in.TestPolicy) != "" {
		v, err := ParseTestPolicyPreference(in.TestPolicy)
		if err != nil {
			errs.add("test_policy", in.TestPolicy, "must be one of Any, Test Optional/Flexible, Test Required")
		}
		p.TestPolicy = v
	}

	if strings.TrimSpace(in.Selectivity) != "" {
		v, err := ParseSelectivity(in.Selectivity)
		if err != nil {
			errs.add("selectivity", in.Selectivity, "must be one of Safety Schools, Target Schools, Reach Schools, All")
		}
		p.Selectivity = v
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return p, nil
}

func normalizeTestScore(in Input, errs *ValidationErrors) TestScore {
	kind := strings.TrimSpace(in.TestType)
	if kind == "" {
		switch {
		case in.SAT != 0 && in.ACT != 0:
			errs.add("test_type", "", "both SAT and ACT given; set test_type to choose one")
			return NoScore()
		case in.SAT != 0:
			kind = "SAT"
		case in.ACT != 0:
			kind = "ACT"
		default:
			kind = "None"
		}
	}

	switch textutil.Key(kind) {
	case "sat":
		if in.SAT < MinSAT || in.SAT > MaxSAT {
			errs.add("sat", strconv.Itoa(in.SAT), "must be within [%d, %d]", MinSAT, MaxSAT)
			return NoScore()
		}
		return SAT(in.SAT)
	case "act":
		if in.ACT < MinACT || in.ACT > MaxACT {
			errs.add("act", strconv.Itoa(in.ACT), "must be within [%d, %d]", MinACT, MaxACT)
			return NoScore()
		}
		return ACT(in.ACT)
	case "none":
		return NoScore()
	default:
		errs.add("test_type", in.TestType, "must be one of SAT, ACT, None")
		return NoScore()
	}
}

// LoadFile reads a YAML profile document.
func LoadFile(path string) (Input, error) {
	var in Input
	data, err := os.ReadFile(path)
	if err != nil {
		return in, fmt.Errorf("read profile file: %w", err)
	}
	if err := yaml.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("decode profile file %s: %w", path, err)
	}
	return in, nil
}
