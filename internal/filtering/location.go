package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/unifit/internal/catalog"
)

type locationFilter struct {
	toggle
	states []string
	keys   map[string]struct{}
}

// NewLocation creates a filter that keeps institutions in the preferred states.
func NewLocation() Filter {
	return &locationFilter{}
}

func (f *locationFilter) Name() string { return "location" }

func (f *locationFilter) Validate(cfg *Config) error {
	if cfg == nil || cfg.Profile == nil {
		return errNoProfile
	}
	f.states = append([]string(nil), cfg.Profile.Locations...)
	f.keys = cfg.Profile.LocationSet()
	return nil
}

func (f *locationFilter) Apply(_ context.Context, deps Deps, in []*catalog.Institution) ([]*catalog.Institution, Step, error) {
	if len(f.states) == 0 {
		return passThrough(in)
	}

	out, dropped, step := keep(in, func(inst *catalog.Institution) bool {
		return inst.InState(f.keys)
	})
	logDropped(deps, "excluding institutions outside preferred states", dropped, step.Left,
		zap.Strings("states", f.states),
	)
	return out, step, nil
}

func (f *locationFilter) Status() Status {
	details := map[string]string{}
	if len(f.states) > 0 {
		details["states"] = strings.Join(f.states, ",")
	}
	return f.status(f.Name(), details)
}
