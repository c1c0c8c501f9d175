package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/unifit/internal/catalog"
	"github.com/spigell/unifit/internal/profile"
)

type testPolicyFilter struct {
	toggle
	preference profile.TestPolicyPreference
}

// NewTestPolicy creates a filter that keeps institutions whose test policy
// fits the preference. Unknown or absent policies are never excluded.
func NewTestPolicy() Filter {
	return &testPolicyFilter{}
}

func (f *testPolicyFilter) Name() string { return "test_policy" }

func (f *testPolicyFilter) Validate(cfg *Config) error {
	if cfg == nil || cfg.Profile == nil {
		return errNoProfile
	}
	f.preference = cfg.Profile.TestPolicy
	return nil
}

func (f *testPolicyFilter) Apply(_ context.Context, deps Deps, in []*catalog.Institution) ([]*catalog.Institution, Step, error) {
	if f.preference == profile.TestPolicyAny {
		return passThrough(in)
	}

	out, dropped, step := keep(in, func(inst *catalog.Institution) bool {
		if inst.TestPolicy == nil || *inst.TestPolicy == catalog.TestPolicyUnknown {
			return true
		}
		return f.preference.Matches(*inst.TestPolicy)
	})
	logDropped(deps, "excluding institutions by test policy", dropped, step.Left,
		zap.Stringer("preference", f.preference),
	)
	return out, step, nil
}

func (f *testPolicyFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"preference": f.preference.String()})
}
