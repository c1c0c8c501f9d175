package scoring

import (
	"errors"
	"fmt"
	"math"
)

const weightTolerance = 0.001

// Weights are the coefficients of the overall match score.
type Weights struct {
	Academic    float64 `mapstructure:"academic" json:"academic"`
	Selectivity float64 `mapstructure:"selectivity" json:"selectivity"`
	Preference  float64 `mapstructure:"preference" json:"preference"`
}

// DefaultWeights returns 0.35 academic, 0.25 selectivity, 0.40 preference.
func DefaultWeights() Weights {
	return Weights{Academic: 0.35, Selectivity: 0.25, Preference: 0.40}
}

// IsZero reports whether no weight was set.
func (w Weights) IsZero() bool {
	return w == Weights{}
}

// Validate checks that every weight is non-negative and that they sum to 1.
func (w Weights) Validate() error {
	var errs []error
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"academic", w.Academic},
		{"selectivity", w.Selectivity},
		{"preference", w.Preference},
	} {
		if math.IsNaN(f.value) || f.value < 0 {
			errs = append(errs, fmt.Errorf("weight %s must be non-negative, got %v", f.name, f.value))
		}
	}
	sum := w.Academic + w.Selectivity + w.Preference
	if math.Abs(sum-1) > weightTolerance {
		errs = append(errs, fmt.Errorf("weights must sum to 1, got %.3f", sum))
	}
	return errors.Join(errs...)
}
