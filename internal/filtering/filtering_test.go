package filtering

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/unifit/internal/catalog"
	"github.com/spigell/unifit/internal/profile"
)

func policy(p catalog.TestPolicy) *catalog.TestPolicy {
	return &p
}

func sampleInstitutions() []*catalog.Institution {
	return []*catalog.Institution{
		{
			ID: 1, Name: "State U", StateName: "California", Control: catalog.ControlPublic,
			TestPolicy: policy(catalog.TestRequired),
			NetPrice:   catalog.NetPrices{"NPT43_PUB": 15000},
		},
		{
			ID: 2, Name: "Liberal Arts College", StateName: "Oregon", Control: catalog.ControlPrivateNonprofit,
			TestPolicy: policy(catalog.TestConsideredNotRequired),
			NetPrice:   catalog.NetPrices{"NPT43_PRIV": 30000},
		},
		{
			ID: 3, Name: "Tech Institute", StateName: "California", Control: catalog.ControlPrivateForProfit,
			TestPolicy: policy(catalog.TestPolicyUnknown),
			NetPrice:   catalog.NetPrices{"NPT43_PRIV": 20000},
		},
		{
			ID: 4, Name: "Mystery College", StateName: "Nevada", Control: catalog.ControlPrivateNonprofit,
		},
	}
}

func observedTypes(in []*catalog.Institution) []catalog.ControlType {
	c, err := catalog.New(in)
	if err != nil {
		panic(err)
	}
	return c.ObservedControlTypes()
}

func ids(in []*catalog.Institution) []int {
	out := make([]int, 0, len(in))
	for _, inst := range in {
		out = append(out, inst.ID)
	}
	return out
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func run(t *testing.T, p *profile.Profile, in []*catalog.Institution) ([]*catalog.Institution, []Report) {
	t.Helper()
	cfg := &Config{Profile: p, ObservedTypes: observedTypes(in)}
	out, reports, err := Run(context.Background(), cfg, Deps{}, Default(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out, reports
}

func baseProfile() *profile.Profile {
	return &profile.Profile{IncomeBracket: catalog.Bracket48To75k, MaxNetPrice: 50000}
}

func TestRunFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(p *profile.Profile)
		want   []int
	}{
		{name: "no constraints", modify: func(*profile.Profile) {}, want: []int{1, 2, 3, 4}},
		{name: "location", modify: func(p *profile.Profile) { p.Locations = []string{"California"} }, want: []int{1, 3}},
		{name: "location without matches", modify: func(p *profile.Profile) { p.Locations = []string{"Alaska"} }, want: []int{}},
		{name: "institution type", modify: func(p *profile.Profile) {
			p.InstitutionTypes = []catalog.ControlType{catalog.ControlPrivateNonprofit}
		}, want: []int{2, 4}},
		{name: "test required", modify: func(p *profile.Profile) { p.TestPolicy = profile.TestRequiredOnly }, want: []int{1, 3, 4}},
		{name: "test flexible", modify: func(p *profile.Profile) { p.TestPolicy = profile.TestOptionalFlexible }, want: []int{2, 3, 4}},
		{name: "net price ceiling", modify: func(p *profile.Profile) { p.MaxNetPrice = 20000 }, want: []int{1, 3, 4}},
		{name: "combined", modify: func(p *profile.Profile) {
			p.Locations = []string{"California", "Oregon"}
			p.MaxNetPrice = 16000
		}, want: []int{1}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := baseProfile()
			tt.modify(p)
			out, _ := run(t, p, sampleInstitutions())
			if got := ids(out); !equalIDs(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestInstitutionTypeSymmetry(t *testing.T) {
	t.Parallel()

	none := baseProfile()
	outNone, _ := run(t, none, sampleInstitutions())

	all := baseProfile()
	all.InstitutionTypes = []catalog.ControlType{
		catalog.ControlPublic,
		catalog.ControlPrivateNonprofit,
		catalog.ControlPrivateForProfit,
	}
	outAll, reports := run(t, all, sampleInstitutions())

	if !equalIDs(ids(outNone), ids(outAll)) {
		t.Fatalf("expected selecting all types to equal selecting none: %v vs %v", ids(outNone), ids(outAll))
	}
	if reports[1].Name != "institution_type" || reports[1].Dropped != 0 {
		t.Fatalf("expected institution_type step to drop nothing, got %+v", reports[1])
	}
}

func TestNetPriceKeepsMissingData(t *testing.T) {
	t.Parallel()

	in := []*catalog.Institution{
		{ID: 1, Control: catalog.ControlPublic, NetPrice: catalog.NetPrices{"NPT41_PUB": 999999}},
		{ID: 2, Control: catalog.ControlPrivateNonprofit},
	}
	for _, ceiling := range []float64{0, 1000, 1e9} {
		p := baseProfile()
		p.MaxNetPrice = ceiling
		out, _ := run(t, p, in)
		if !equalIDs(ids(out), []int{1, 2}) {
			t.Fatalf("ceiling %v: expected institutions without bracket data to be kept, got %v", ceiling, ids(out))
		}
	}
}

func TestNetPriceBoundaryIsInclusive(t *testing.T) {
	t.Parallel()

	in := []*catalog.Institution{
		{ID: 1, Control: catalog.ControlPublic, NetPrice: catalog.NetPrices{"NPT43_PUB": 20000}},
		{ID: 2, Control: catalog.ControlPublic, NetPrice: catalog.NetPrices{"NPT43_PUB": 20000.01}},
		{ID: 3, Control: catalog.ControlPublic, NetPrice: catalog.NetPrices{"NPT43_PRIV": 100}},
	}
	p := baseProfile()
	p.MaxNetPrice = 20000

	out, _ := run(t, p, in)
	if !equalIDs(ids(out), []int{1}) {
		t.Fatalf("expected only the institution at the ceiling, got %v", ids(out))
	}
}

func TestRunReportsAndLogsSteps(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	deps := Deps{Logger: zap.New(core)}

	p := baseProfile()
	p.Locations = []string{"California"}
	in := sampleInstitutions()

	steps := Default()
	DisableByName(steps, "test_policy", "turned off")

	out, reports, err := Run(context.Background(), &Config{Profile: p, ObservedTypes: observedTypes(in)}, deps, steps, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalIDs(ids(out), []int{1, 3}) {
		t.Fatalf("unexpected result: %v", ids(out))
	}

	if len(reports) != 4 {
		t.Fatalf("expected 4 reports, got %d", len(reports))
	}
	if reports[0].Name != "location" || reports[0].Initial != 4 || reports[0].Dropped != 2 || reports[0].Left != 2 {
		t.Fatalf("unexpected location report: %+v", reports[0])
	}
	if reports[2].Enabled {
		t.Fatalf("expected test_policy report to be disabled")
	}

	stepLogs := observed.FilterMessage("filter step").All()
	if len(stepLogs) != 3 {
		t.Fatalf("expected 3 step logs, got %d", len(stepLogs))
	}
	ctx := stepLogs[0].ContextMap()
	if ctx["name"] != "location" || ctx["dropped"] != int64(2) || ctx["left"] != int64(2) {
		t.Fatalf("unexpected step log fields: %v", ctx)
	}
	if observed.FilterMessage("filter disabled").Len() != 1 {
		t.Fatalf("expected one disabled filter log")
	}

	statuses := Describe(steps)
	if len(statuses) != 4 {
		t.Fatalf("expected 4 statuses, got %d", len(statuses))
	}
	if statuses[0].Details["states"] != "California" {
		t.Fatalf("unexpected location status: %+v", statuses[0])
	}
	if statuses[2].Enabled || statuses[2].Reason != "turned off" {
		t.Fatalf("unexpected test_policy status: %+v", statuses[2])
	}
}

func TestRunRequiresProfile(t *testing.T) {
	t.Parallel()

	_, _, err := Run(context.Background(), &Config{}, Deps{}, Default(), sampleInstitutions())
	if !errors.Is(err, errNoProfile) {
		t.Fatalf("expected errNoProfile, got %v", err)
	}
}

func TestRunDoesNotModifyInput(t *testing.T) {
	t.Parallel()

	in := sampleInstitutions()
	p := baseProfile()
	p.Locations = []string{"Oregon"}
	_, _ = run(t, p, in)

	if !equalIDs(ids(in), []int{1, 2, 3, 4}) {
		t.Fatalf("input slice was modified: %v", ids(in))
	}
}
