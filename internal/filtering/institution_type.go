package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/unifit/internal/catalog"
)

type institutionTypeFilter struct {
	toggle
	wanted   map[catalog.ControlType]bool
	observed []catalog.ControlType
}

// NewInstitutionType creates a filter that keeps institutions of the
// preferred control types. Choosing every observed type is the same as
// choosing none.
func NewInstitutionType() Filter {
	return &institutionTypeFilter{}
}

func (f *institutionTypeFilter) Name() string { return "institution_type" }

func (f *institutionTypeFilter) Validate(cfg *Config) error {
	if cfg == nil || cfg.Profile == nil {
		return errNoProfile
	}
	f.wanted = make(map[catalog.ControlType]bool, len(cfg.Profile.InstitutionTypes))
	for _, t := range cfg.Profile.InstitutionTypes {
		f.wanted[t] = true
	}
	f.observed = append([]catalog.ControlType(nil), cfg.ObservedTypes...)
	return nil
}

// active reports whether the preference is a strict, non-empty subset of
// the observed types.
func (f *institutionTypeFilter) active() bool {
	if len(f.wanted) == 0 {
		return false
	}
	for _, t := range f.observed {
		if !f.wanted[t] {
			return true
		}
	}
	return false
}

func (f *institutionTypeFilter) Apply(_ context.Context, deps Deps, in []*catalog.Institution) ([]*catalog.Institution, Step, error) {
	if !f.active() {
		return passThrough(in)
	}

	out, dropped, step := keep(in, func(inst *catalog.Institution) bool {
		return f.wanted[inst.Control]
	})
	logDropped(deps, "excluding institutions by control type", dropped, step.Left,
		zap.String("types", f.wantedLabels()),
	)
	return out, step, nil
}

func (f *institutionTypeFilter) wantedLabels() string {
	labels := make([]string, 0, len(f.wanted))
	for _, t := range catalog.AllControlTypes {
		if f.wanted[t] {
			labels = append(labels, t.String())
		}
	}
	return strings.Join(labels, ",")
}

func (f *institutionTypeFilter) Status() Status {
	details := map[string]string{}
	if len(f.wanted) > 0 {
		details["types"] = f.wantedLabels()
	}
	if len(f.wanted) > 0 && !f.active() {
		details["note"] = "all observed types selected"
	}
	return f.status(f.Name(), details)
}
