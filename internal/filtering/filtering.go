package filtering

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/unifit/internal/catalog"
	"github.com/spigell/unifit/internal/profile"
)

// Filter represents a single hard constraint applied to the catalog.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, in []*catalog.Institution) ([]*catalog.Institution, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int `json:"initial"`
	Dropped int `json:"dropped"`
	Left    int `json:"left"`
}

// Report is the outcome of one step in a run.
type Report struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Step
}

// Config contains the settings consumed by the filters.
type Config struct {
	Profile *profile.Profile
	// ObservedTypes are the control types present in the whole catalog.
	ObservedTypes []catalog.ControlType
}

var errNoProfile = errors.New("profile is required")

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Default returns fresh instances of every filter in evaluation order.
func Default() []Filter {
	return []Filter{
		NewLocation(),
		NewInstitutionType(),
		NewTestPolicy(),
		NewNetPrice(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run validates and executes the supplied filters sequentially. The
// returned slice keeps catalog order; an empty result is not an error.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, in []*catalog.Institution) ([]*catalog.Institution, []Report, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	reports := make([]Report, 0, len(steps))
	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Info("filter disabled", zap.String("name", step.Name()))
			}
			reports = append(reports, Report{Name: step.Name(), Step: Step{Initial: len(in), Left: len(in)}})
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		next, info, err := step.Apply(ctx, deps, in)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		reports = append(reports, Report{Name: step.Name(), Enabled: true, Step: info})
		in = next
	}

	return in, reports, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// toggle carries the enabled state shared by every filter.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) status(name string, details map[string]string) Status {
	return Status{Name: name, Enabled: !t.disabled, Reason: t.reason, Details: details}
}

// keep returns the institutions matching pred in their original order
// together with the ids that were dropped.
func keep(in []*catalog.Institution, pred func(*catalog.Institution) bool) ([]*catalog.Institution, []int, Step) {
	out := make([]*catalog.Institution, 0, len(in))
	var dropped []int
	for _, inst := range in {
		if pred(inst) {
			out = append(out, inst)
			continue
		}
		dropped = append(dropped, inst.ID)
	}
	return out, dropped, Step{Initial: len(in), Dropped: len(dropped), Left: len(out)}
}

func passThrough(in []*catalog.Institution) ([]*catalog.Institution, Step, error) {
	return in, Step{Initial: len(in), Dropped: 0, Left: len(in)}, nil
}

func logDropped(deps Deps, msg string, dropped []int, left int, fields ...zap.Field) {
	if deps.Logger == nil || len(dropped) == 0 {
		return
	}
	fields = append(fields,
		zap.Ints("excluded_institutions", dropped),
		zap.Int("institutions_left", left),
	)
	deps.Logger.Debug(msg, fields...)
}
