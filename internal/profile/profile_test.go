package profile

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spigell/unifit/internal/catalog"
)

func TestConvertGPA(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		gpa   float64
		scale GPAScale
		want  float64
	}{
		{name: "four scale unchanged", gpa: 3.7, scale: GPAScale4, want: 3.7},
		{name: "five scale", gpa: 4.5, scale: GPAScale5, want: 3.6},
		{name: "hundred scale", gpa: 90, scale: GPAScale100, want: 3.6},
		{name: "clamped high", gpa: 4.5, scale: GPAScale4, want: 4},
		{name: "clamped low", gpa: -1, scale: GPAScale4, want: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ConvertGPA(tt.gpa, tt.scale)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("ConvertGPA(%v, %s) = %v, want %v", tt.gpa, tt.scale, got, tt.want)
			}
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	p, err := Normalize(Input{GPA: 3.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.TestScore.Kind != TestNone {
		t.Fatalf("expected no test score, got %s", p.TestScore)
	}
	if p.Selectivity != SelectivityAll {
		t.Fatalf("expected selectivity All, got %s", p.Selectivity)
	}
	if p.TestPolicy != TestPolicyAny {
		t.Fatalf("expected test policy Any, got %s", p.TestPolicy)
	}
	if p.IncomeBracket != catalog.DefaultIncomeBracket {
		t.Fatalf("expected default income bracket, got %s", p.IncomeBracket)
	}
	if p.MaxNetPrice != DefaultMaxNetPrice {
		t.Fatalf("expected default max net price, got %v", p.MaxNetPrice)
	}
	if p.HasLocationPreference() || p.HasMajorPreference() || len(p.InstitutionTypes) != 0 {
		t.Fatalf("expected no preferences, got %+v", p)
	}
}

func TestNormalizeFullInput(t *testing.T) {
	t.Parallel()

	price := 30000.0
	p, err := Normalize(Input{
		TestType:         "sat",
		SAT:              1450,
		GPA:              95,
		GPAScale:         "100",
		States:           []string{"ca", "New York", "California", "  "},
		InstitutionTypes: []string{"Private Nonprofit", "public", "1"},
		Major:            "  Computer   Science ",
		IncomeBracket:    "NPT45",
		MaxNetPrice:      &price,
		TestPolicy:       "test optional/flexible",
		Selectivity:      "target",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, ok := p.TestScore.SAT(); !ok || v != 1450 {
		t.Fatalf("expected SAT 1450, got %s", p.TestScore)
	}
	if _, ok := p.TestScore.ACT(); ok {
		t.Fatalf("expected ACT to be absent")
	}
	if math.Abs(p.GPA-3.8) > 1e-9 {
		t.Fatalf("expected GPA 3.8, got %v", p.GPA)
	}
	if len(p.Locations) != 2 || p.Locations[0] != "California" || p.Locations[1] != "New York" {
		t.Fatalf("unexpected locations: %v", p.Locations)
	}
	set := p.LocationSet()
	if _, ok := set["california"]; !ok {
		t.Fatalf("expected location set to contain california, got %v", set)
	}
	if len(p.InstitutionTypes) != 2 || p.InstitutionTypes[0] != catalog.ControlPublic || p.InstitutionTypes[1] != catalog.ControlPrivateNonprofit {
		t.Fatalf("unexpected institution types: %v", p.InstitutionTypes)
	}
	if p.Major != "Computer Science" || !p.HasMajorPreference() {
		t.Fatalf("unexpected major: %q", p.Major)
	}
	if p.IncomeBracket != catalog.Bracket110kPlus {
		t.Fatalf("unexpected income bracket: %s", p.IncomeBracket)
	}
	if p.MaxNetPrice != 30000 {
		t.Fatalf("unexpected max net price: %v", p.MaxNetPrice)
	}
	if p.TestPolicy != TestOptionalFlexible || p.Selectivity != TargetSchools {
		t.Fatalf("unexpected policy/selectivity: %s/%s", p.TestPolicy, p.Selectivity)
	}
}

func TestNormalizeInfersTestType(t *testing.T) {
	t.Parallel()

	p, err := Normalize(Input{ACT: 30, GPA: 3.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := p.TestScore.ACT(); !ok || v != 30 {
		t.Fatalf("expected ACT 30, got %s", p.TestScore)
	}
}

func TestNormalizeAnyMajorIsNoPreference(t *testing.T) {
	t.Parallel()

	p, err := Normalize(Input{Major: "any", GPA: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.HasMajorPreference() {
		t.Fatalf("expected Any to mean no major preference")
	}
}

func TestNormalizeRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	negative := -1.0
	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{name: "sat out of range", in: Input{TestType: "SAT", SAT: 1700}, field: "sat"},
		{name: "sat missing", in: Input{TestType: "SAT"}, field: "sat"},
		{name: "act out of range", in: Input{TestType: "ACT", ACT: 40}, field: "act"},
		{name: "both scores", in: Input{SAT: 1200, ACT: 25}, field: "test_type"},
		{name: "unknown test type", in: Input{TestType: "GRE"}, field: "test_type"},
		{name: "gpa above scale", in: Input{GPA: 4.5}, field: "gpa"},
		{name: "negative gpa", in: Input{GPA: -0.5}, field: "gpa"},
		{name: "unknown scale", in: Input{GPA: 3, GPAScale: "10"}, field: "gpa_scale"},
		{name: "unknown institution type", in: Input{InstitutionTypes: []string{"Charter"}}, field: "institution_types"},
		{name: "unknown bracket", in: Input{IncomeBracket: "NPT49"}, field: "income_bracket"},
		{name: "negative price", in: Input{MaxNetPrice: &negative}, field: "max_net_price"},
		{name: "unknown policy", in: Input{TestPolicy: "sometimes"}, field: "test_policy"},
		{name: "unknown selectivity", in: Input{Selectivity: "elite"}, field: "selectivity"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := Normalize(tt.in)
			if err == nil {
				t.Fatalf("expected error, got profile %+v", p)
			}
			if !errors.Is(err, ErrInvalidProfile) {
				t.Fatalf("expected ErrInvalidProfile, got %v", err)
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			found := false
			for _, e := range verrs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected error on field %s, got %v", tt.field, verrs)
			}
		})
	}
}

func TestNormalizeCollectsAllErrors(t *testing.T) {
	t.Parallel()

	_, err := Normalize(Input{GPA: 9, Selectivity: "elite", TestPolicy: "sometimes"})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if len(verrs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(verrs), verrs)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.yaml")
	doc := `test_type: ACT
act: 28
gpa: 3.6
states: [MA, NY]
institution_types: [Public]
major: Biology
income_bracket: "48,001-75,000"
max_net_price: 20000
test_policy: Any
selectivity: Safety Schools
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	in, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.ACT != 28 || in.GPA != 3.6 || len(in.States) != 2 || in.MaxNetPrice == nil || *in.MaxNetPrice != 20000 {
		t.Fatalf("unexpected input: %+v", in)
	}

	p, err := Normalize(in)
	if err != nil {
		t.Fatalf("normalize loaded profile: %v", err)
	}
	if p.Selectivity != SafetySchools || p.IncomeBracket != catalog.Bracket48To75k {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if p.Locations[0] != "Massachusetts" || p.Locations[1] != "New York" {
		t.Fatalf("unexpected locations: %v", p.Locations)
	}
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	p, err := Normalize(Input{SAT: 1300, GPA: 3.2, IncomeBracket: "NPT41"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("expected normalized profile to validate, got %v", err)
	}

	var nilProfile *Profile
	if err := nilProfile.Validate(); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile for nil profile, got %v", err)
	}

	bad := &Profile{Selectivity: 9, TestPolicy: 5, TestScore: SAT(300), GPA: math.NaN(), MaxNetPrice: math.Inf(1)}
	err = bad.Validate()
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	fields := map[string]bool{}
	for _, e := range verrs {
		fields[e.Field] = true
	}
	for _, want := range []string{"sat", "gpa", "income_bracket", "max_net_price", "test_policy", "selectivity"} {
		if !fields[want] {
			t.Fatalf("expected %s to be reported, got %v", want, verrs)
		}
	}
}
