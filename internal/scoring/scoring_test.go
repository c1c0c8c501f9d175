package scoring

import (
	"math"
	"testing"

	"github.com/spigell/unifit/internal/catalog"
	"github.com/spigell/unifit/internal/fos"
	"github.com/spigell/unifit/internal/profile"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func policy(p catalog.TestPolicy) *catalog.TestPolicy {
	return &p
}

func TestCategoryForBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  Category
	}{
		{100, StrongMatch},
		{StrongMatchThreshold, StrongMatch},
		{StrongMatchThreshold - 1, GoodMatch},
		{GoodMatchThreshold, GoodMatch},
		{GoodMatchThreshold - 1, FairMatch},
		{FairMatchThreshold, FairMatch},
		{FairMatchThreshold - 1, PotentialMatch},
		{0, PotentialMatch},
	}

	for _, tt := range tests {
		if got := CategoryFor(tt.score); got != tt.want {
			t.Fatalf("CategoryFor(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestAcademic(t *testing.T) {
	t.Parallel()

	satInst := &catalog.Institution{ID: 1, SATAvg: catalog.Ptr(1200)}
	actInst := &catalog.Institution{ID: 2, ACTMedian: catalog.Ptr(30)}
	both := &catalog.Institution{ID: 3, SATAvg: catalog.Ptr(1000), ACTMedian: catalog.Ptr(22)}
	bare := &catalog.Institution{ID: 4}

	tests := []struct {
		name  string
		score profile.TestScore
		inst  *catalog.Institution
		pref  profile.Selectivity
		want  float64
	}{
		{"sat safety above average", profile.SAT(1300), satInst, profile.SafetySchools, 60},
		{"sat safety saturates high", profile.SAT(1600), &catalog.Institution{SATAvg: catalog.Ptr(400)}, profile.SafetySchools, 100},
		{"sat safety saturates low", profile.SAT(400), &catalog.Institution{SATAvg: catalog.Ptr(1600)}, profile.SafetySchools, 0},
		{"sat target exact", profile.SAT(1200), satInst, profile.TargetSchools, 100},
		{"sat target off by 100", profile.SAT(1100), satInst, profile.TargetSchools, 80},
		{"sat reach peak", profile.SAT(1100), satInst, profile.ReachSchools, 100},
		{"sat reach above", profile.SAT(1300), satInst, profile.ReachSchools, 80},
		{"sat all", profile.SAT(1200), both, profile.SelectivityAll, 85},
		{"act safety", profile.ACT(32), actInst, profile.SafetySchools, 70},
		{"act target saturates", profile.ACT(20), actInst, profile.TargetSchools, 0},
		{"act reach peak", profile.ACT(28), actInst, profile.ReachSchools, 100},
		{"act all saturates", profile.ACT(36), &catalog.Institution{ACTMedian: catalog.Ptr(1)}, profile.SelectivityAll, 100},
		{"act all", profile.ACT(20), both, profile.SelectivityAll, 65},
		{"no score", profile.NoScore(), both, profile.TargetSchools, NeutralScore},
		{"sat without average", profile.SAT(1200), bare, profile.TargetSchools, NeutralScore},
		{"act against sat only school", profile.ACT(30), satInst, profile.TargetSchools, NeutralScore},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Academic(tt.score, tt.inst, tt.pref); !almostEqual(got, tt.want) {
				t.Fatalf("Academic = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectivity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rate *float64
		pref profile.Selectivity
		want float64
	}{
		{"all is flat", catalog.Ptr(0.9), profile.SelectivityAll, NoPreferenceScore},
		{"all without rate", nil, profile.SelectivityAll, NoPreferenceScore},
		{"safety", catalog.Ptr(0.3), profile.SafetySchools, 80},
		{"safety saturates", catalog.Ptr(1.0), profile.SafetySchools, 100},
		{"target peak", catalog.Ptr(0.35), profile.TargetSchools, 100},
		{"target far", catalog.Ptr(0.05), profile.TargetSchools, 10},
		{"target saturates", catalog.Ptr(0.9), profile.TargetSchools, 0},
		{"reach", catalog.Ptr(0.05), profile.ReachSchools, 87.5},
		{"reach saturates", catalog.Ptr(0.8), profile.ReachSchools, 0},
		{"missing rate", nil, profile.ReachSchools, NeutralScore},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Selectivity(tt.rate, tt.pref); math.Abs(got-tt.want) > 1e-6 {
				t.Fatalf("Selectivity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	t.Parallel()

	inst := &catalog.Institution{StateName: "California"}

	if got := Location(inst, &profile.Profile{}); got != NoPreferenceScore {
		t.Fatalf("expected %v without preference, got %v", NoPreferenceScore, got)
	}
	if got := Location(inst, &profile.Profile{Locations: []string{"California"}}); got != MaxScore {
		t.Fatalf("expected %v inside preferred states, got %v", MaxScore, got)
	}
	if got := Location(inst, &profile.Profile{Locations: []string{"Oregon"}}); got != MinScore {
		t.Fatalf("expected %v outside preferred states, got %v", MinScore, got)
	}
}

func TestMajor(t *testing.T) {
	t.Parallel()

	idx := fos.NewIndex([]fos.Offering{{InstitutionID: 1, ProgramName: "Computer Science"}})
	wants := &profile.Profile{Major: "Computer Science"}

	if got := Major(idx, 1, wants); got != MaxScore {
		t.Fatalf("expected offered program to score %v, got %v", MaxScore, got)
	}
	if got := Major(idx, 2, wants); got != MismatchScore {
		t.Fatalf("expected missing program to score %v, got %v", MismatchScore, got)
	}
	if got := Major(idx, 2, &profile.Profile{}); got != NoPreferenceScore {
		t.Fatalf("expected no preference to score %v, got %v", NoPreferenceScore, got)
	}
	if got := Major(fos.NewIndex(nil), 1, wants); got != NoPreferenceScore {
		t.Fatalf("expected empty index to score %v, got %v", NoPreferenceScore, got)
	}
}

func TestFinancial(t *testing.T) {
	t.Parallel()

	public := func(prices catalog.NetPrices) *catalog.Institution {
		return &catalog.Institution{Control: catalog.ControlPublic, NetPrice: prices}
	}
	private := func(prices catalog.NetPrices) *catalog.Institution {
		return &catalog.Institution{Control: catalog.ControlPrivateNonprofit, NetPrice: prices}
	}

	tests := []struct {
		name string
		inst *catalog.Institution
		want float64
	}{
		{"well under budget", public(catalog.NetPrices{"NPT43_PUB": 9000}), 100},
		{"exactly half", public(catalog.NetPrices{"NPT43_PUB": 10000}), 100},
		{"under budget", public(catalog.NetPrices{"NPT43_PUB": 15000}), 75},
		{"at budget", public(catalog.NetPrices{"NPT43_PUB": 20000}), 75},
		{"slightly over", public(catalog.NetPrices{"NPT43_PUB": 25000}), 50},
		{"well over", public(catalog.NetPrices{"NPT43_PUB": 25001}), 25},
		{"private column", private(catalog.NetPrices{"NPT43_PUB": 1000, "NPT43_PRIV": 40000}), 25},
		{"both missing", public(catalog.NetPrices{"NPT41_PUB": 1000}), NeutralScore},
		{"private without private figure", private(catalog.NetPrices{"NPT43_PUB": 1000}), NeutralScore},
		{"public falls back to private figure", public(catalog.NetPrices{"NPT43_PRIV": 9000}), 100},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Financial(tt.inst, catalog.Bracket48To75k, 20000); got != tt.want {
				t.Fatalf("Financial = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTestPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		policy *catalog.TestPolicy
		pref   profile.TestPolicyPreference
		want   float64
	}{
		{"missing policy", nil, profile.TestRequiredOnly, NeutralScore},
		{"any preference", policy(catalog.TestRequired), profile.TestPolicyAny, NoPreferenceScore},
		{"required match", policy(catalog.TestRequired), profile.TestRequiredOnly, MaxScore},
		{"required mismatch", policy(catalog.TestRecommended), profile.TestRequiredOnly, MismatchScore},
		{"flexible match", policy(catalog.TestConsideredNotRequired), profile.TestOptionalFlexible, MaxScore},
		{"flexible neither", policy(catalog.TestNeitherRequiredNorRecommended), profile.TestOptionalFlexible, MaxScore},
		{"flexible mismatch", policy(catalog.TestRequired), profile.TestOptionalFlexible, MismatchScore},
		{"unknown policy", policy(catalog.TestPolicyUnknown), profile.TestOptionalFlexible, MismatchScore},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TestPolicy(tt.policy, tt.pref); got != tt.want {
				t.Fatalf("TestPolicy = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverall(t *testing.T) {
	t.Parallel()

	academicOnly := Weights{Academic: 1}

	if got := Overall(62.5, 0, 0, academicOnly); got != 62 {
		t.Fatalf("expected half to round to even 62, got %d", got)
	}
	if got := Overall(63.5, 0, 0, academicOnly); got != 64 {
		t.Fatalf("expected half to round to even 64, got %d", got)
	}
	if got := Overall(100, 100, 100, Weights{Academic: 1, Selectivity: 1, Preference: 1}); got != 100 {
		t.Fatalf("expected saturation at 100, got %d", got)
	}
	if got := Overall(100, 87.5, 75, DefaultWeights()); got != 87 {
		t.Fatalf("expected 87, got %d", got)
	}
}

func TestScoreReachScenario(t *testing.T) {
	t.Parallel()

	s := New(fos.NewIndex(nil), DefaultWeights())
	inst := &catalog.Institution{ID: 1, Name: "Selective U", AdmissionRate: catalog.Ptr(0.05)}
	c := s.Score(inst, &profile.Profile{Selectivity: profile.ReachSchools, MaxNetPrice: 25000, IncomeBracket: catalog.DefaultIncomeBracket})

	if math.Abs(c.SubScores.Selectivity-87.5) > 1e-6 {
		t.Fatalf("expected selectivity 87.5, got %v", c.SubScores.Selectivity)
	}
	if c.SubScores.Academic != NeutralScore || c.SubScores.Financial != NeutralScore || c.SubScores.TestPolicy != NeutralScore {
		t.Fatalf("expected neutral defaults for missing data, got %+v", c.SubScores)
	}
	if c.SubScores.Location != NoPreferenceScore || c.SubScores.Major != NoPreferenceScore {
		t.Fatalf("expected no-preference defaults, got %+v", c.SubScores)
	}
	if !almostEqual(c.Preference, 62.5) {
		t.Fatalf("expected preference 62.5, got %v", c.Preference)
	}
	if c.MatchScore != 64 || c.Category != GoodMatch {
		t.Fatalf("expected 64 / Good Match, got %d / %s", c.MatchScore, c.Category)
	}
	if c.Institution != inst {
		t.Fatalf("expected candidate to reference the scored institution")
	}
}

func TestScoreAllTargetScenario(t *testing.T) {
	t.Parallel()

	institutions := []*catalog.Institution{
		{ID: 1, SATAvg: catalog.Ptr(1200)},
		{ID: 2, SATAvg: catalog.Ptr(1000)},
		{ID: 3, SATAvg: catalog.Ptr(1400)},
	}
	p := &profile.Profile{TestScore: profile.SAT(1100), Selectivity: profile.TargetSchools}

	got := New(nil, DefaultWeights()).ScoreAll(institutions, p)
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	for i, c := range got {
		if c.Institution.ID != institutions[i].ID {
			t.Fatalf("expected input order to be kept, got %d at %d", c.Institution.ID, i)
		}
	}
	if got[0].SubScores.Academic != 80 || got[1].SubScores.Academic != 80 || got[2].SubScores.Academic != 40 {
		t.Fatalf("unexpected academic scores: %v %v %v", got[0].SubScores.Academic, got[1].SubScores.Academic, got[2].SubScores.Academic)
	}
	if got[0].MatchScore <= got[2].MatchScore {
		t.Fatalf("expected the 1200 school to outrank the 1400 school")
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	t.Parallel()

	inst := &catalog.Institution{
		ID:            7,
		Control:       catalog.ControlPublic,
		StateName:     "Ohio",
		AdmissionRate: catalog.Ptr(0.4),
		ACTMedian:     catalog.Ptr(25),
		TestPolicy:    policy(catalog.TestRecommended),
		NetPrice:      catalog.NetPrices{"NPT43_PUB": 12000},
	}
	p := &profile.Profile{
		TestScore:     profile.ACT(27),
		Locations:     []string{"Ohio"},
		IncomeBracket: catalog.Bracket48To75k,
		MaxNetPrice:   20000,
		TestPolicy:    profile.TestOptionalFlexible,
		Selectivity:   profile.TargetSchools,
	}
	s := New(nil, DefaultWeights())

	first := s.Score(inst, p)
	for i := 0; i < 10; i++ {
		if again := s.Score(inst, p); again != first {
			t.Fatalf("expected identical results, got %+v and %+v", first, again)
		}
	}
}

func TestWeightsValidate(t *testing.T) {
	t.Parallel()

	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("expected default weights to be valid: %v", err)
	}
	if err := (Weights{Academic: 0.5, Selectivity: 0.5, Preference: 0.5}).Validate(); err == nil {
		t.Fatalf("expected error for weights not summing to 1")
	}
	if err := (Weights{Academic: -0.1, Selectivity: 0.6, Preference: 0.5}).Validate(); err == nil {
		t.Fatalf("expected error for negative weight")
	}
	if !(Weights{}).IsZero() || DefaultWeights().IsZero() {
		t.Fatalf("unexpected IsZero result")
	}
}

func TestExplain(t *testing.T) {
	t.Parallel()

	c := Candidate{
		Institution: &catalog.Institution{ID: 1, TestPolicy: policy(catalog.TestRequired)},
		SubScores: SubScores{
			Academic:    90,
			Selectivity: 40,
			Location:    0,
			Major:       MaxScore,
			Financial:   60,
			TestPolicy:  MaxScore,
		},
	}
	p := &profile.Profile{
		Major:       "Biology",
		Locations:   []string{"Texas"},
		TestPolicy:  profile.TestRequiredOnly,
		Selectivity: profile.ReachSchools,
	}

	got := Explain(c, p)
	want := []string{
		"Strong academic fit.",
		"Offers field: Biology.",
		"Not in preferred location(s).",
		"Fair financial fit (net price).",
		"May not align with 'Reach Schools' preference.",
		"Test score policy matches your preference.",
		"Tests required.",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("point %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestExplainSkipsUnsetPreferences(t *testing.T) {
	t.Parallel()

	c := Candidate{
		Institution: &catalog.Institution{ID: 1},
		SubScores:   SubScores{Academic: 10, Selectivity: 75, Financial: 25},
	}
	got := Explain(c, &profile.Profile{})
	if len(got) != 3 {
		t.Fatalf("expected academic, financial and selectivity points only, got %v", got)
	}
	if got[0] != "Academics may be a stretch or mismatch." || got[1] != "Net price may be a concern." {
		t.Fatalf("unexpected points: %v", got)
	}
}

func TestUnknownPreferencesAreNeutral(t *testing.T) {
	t.Parallel()

	inst := &catalog.Institution{
		ID:        1,
		Control:   catalog.ControlPublic,
		SATAvg:    catalog.Ptr(1200),
		ACTMedian: catalog.Ptr(26),
		NetPrice:  catalog.NetPrices{"NPT43_PUB": 30000},
	}
	rate := 0.2

	tests := []struct {
		name string
		got  float64
	}{
		{name: "academic sat", got: Academic(profile.SAT(1300), inst, profile.Selectivity(9))},
		{name: "academic act", got: Academic(profile.ACT(30), inst, profile.Selectivity(9))},
		{name: "selectivity", got: Selectivity(&rate, profile.Selectivity(9))},
		{name: "financial", got: Financial(inst, 0, 20000)},
		{name: "test policy", got: TestPolicy(policy(catalog.TestRequired), profile.TestPolicyPreference(7))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != NeutralScore {
				t.Fatalf("expected neutral score, got %v", tt.got)
			}
		})
	}
}
