package profile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProfile marks caller input the normalizer rejected.
var ErrInvalidProfile = errors.New("invalid profile")

// InvalidError describes one rejected field.
type InvalidError struct {
	Field  string `json:"field"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

func (e *InvalidError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidProfile) hold.
func (e *InvalidError) Is(target error) bool {
	return target == ErrInvalidProfile
}

// ValidationErrors collects every problem found in one input.
type ValidationErrors []*InvalidError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidProfile, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrInvalidProfile) hold.
func (v ValidationErrors) Is(target error) bool {
	return target == ErrInvalidProfile
}

func (v *ValidationErrors) add(field, value, format string, args ...any) {
	*v = append(*v, &InvalidError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)})
}
