package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/spigell/unifit/internal/catalog"
	"github.com/spigell/unifit/internal/profile"
)

// buildInput layers the profile sources: config defaults, then the profile
// file, then explicitly set flags.
func buildInput(cmd *cobra.Command, defaults profile.Input) (profile.Input, error) {
	in := defaults

	if path := flagString(cmd, "profile-file"); path != "" {
		fromFile, err := profile.LoadFile(path)
		if err != nil {
			return in, err
		}
		in = mergeInput(in, fromFile)
	}

	return applyFlags(cmd, in)
}

// mergeInput overlays the fields set in over onto base.
func mergeInput(base, over profile.Input) profile.Input {
	out := base
	if over.TestType != "" {
		out.TestType = over.TestType
	}
	if over.SAT != 0 {
		out.SAT = over.SAT
	}
	if over.ACT != 0 {
		out.ACT = over.ACT
	}
	if over.GPA != 0 {
		out.GPA = over.GPA
	}
	if over.GPAScale != "" {
		out.GPAScale = over.GPAScale
	}
	if len(over.States) > 0 {
		out.States = over.States
	}
	if len(over.InstitutionTypes) > 0 {
		out.InstitutionTypes = over.InstitutionTypes
	}
	if over.Major != "" {
		out.Major = over.Major
	}
	if over.IncomeBracket != "" {
		out.IncomeBracket = over.IncomeBracket
	}
	if over.MaxNetPrice != nil {
		out.MaxNetPrice = over.MaxNetPrice
	}
	if over.TestPolicy != "" {
		out.TestPolicy = over.TestPolicy
	}
	if over.Selectivity != "" {
		out.Selectivity = over.Selectivity
	}
	return out
}

func applyFlags(cmd *cobra.Command, in profile.Input) (profile.Input, error) {
	f := cmd.Flags()
	var errs []error
	set := func(name string, apply func() error) {
		if !f.Changed(name) {
			return
		}
		if err := apply(); err != nil {
			errs = append(errs, fmt.Errorf("flag --%s: %w", name, err))
		}
	}

	set("test-type", func() (err error) { in.TestType, err = f.GetString("test-type"); return })
	set("sat", func() (err error) { in.SAT, err = f.GetInt("sat"); return })
	set("act", func() (err error) { in.ACT, err = f.GetInt("act"); return })
	set("gpa", func() (err error) { in.GPA, err = f.GetFloat64("gpa"); return })
	set("gpa-scale", func() (err error) { in.GPAScale, err = f.GetString("gpa-scale"); return })
	set("state", func() (err error) { in.States, err = f.GetStringSlice("state"); return })
	set("type", func() (err error) { in.InstitutionTypes, err = f.GetStringSlice("type"); return })
	set("major", func() (err error) { in.Major, err = f.GetString("major"); return })
	set("income", func() (err error) { in.IncomeBracket, err = f.GetString("income"); return })
	set("test-policy", func() (err error) { in.TestPolicy, err = f.GetString("test-policy"); return })
	set("selectivity", func() (err error) { in.Selectivity, err = f.GetString("selectivity"); return })
	set("max-net-price", func() error {
		v, err := f.GetFloat64("max-net-price")
		if err == nil {
			in.MaxNetPrice = &v
		}
		return err
	})

	return in, errors.Join(errs...)
}

// promptProfile asks for every profile field, offering the current value as
// the default.
func promptProfile(in profile.Input, programs []string) (profile.Input, error) {
	var err error

	if in.TestType, err = selectOne("Which test did you take?", []string{"SAT", "ACT", "None"}, in.TestType); err != nil {
		return in, err
	}

	switch strings.ToUpper(in.TestType) {
	case "SAT":
		if in.SAT, err = promptInt("SAT total score", in.SAT, profile.MinSAT, profile.MaxSAT); err != nil {
			return in, err
		}
	case "ACT":
		if in.ACT, err = promptInt("ACT composite score", in.ACT, profile.MinACT, profile.MaxACT); err != nil {
			return in, err
		}
	}

	if in.GPAScale, err = selectOne("GPA scale", []string{"4.0", "5.0", "100"}, in.GPAScale); err != nil {
		return in, err
	}
	scale, err := profile.ParseGPAScale(in.GPAScale)
	if err != nil {
		return in, err
	}
	if in.GPA, err = promptFloat("GPA", in.GPA, 0, scale.Max()); err != nil {
		return in, err
	}

	states, err := promptText("Preferred states (comma separated, empty for any)", strings.Join(in.States, ", "), validStates)
	if err != nil {
		return in, err
	}
	in.States = splitList(states)

	types, err := promptText("Institution types (Public, Private nonprofit, Private for-profit; empty for any)",
		strings.Join(in.InstitutionTypes, ", "), validTypes)
	if err != nil {
		return in, err
	}
	in.InstitutionTypes = splitList(types)

	if in.Major, err = selectOne("Intended major", append([]string{profile.AnyMajor}, programs...), in.Major); err != nil {
		return in, err
	}

	brackets := make([]string, 0, len(catalog.AllIncomeBrackets))
	for _, b := range catalog.AllIncomeBrackets {
		brackets = append(brackets, b.String())
	}
	if in.IncomeBracket, err = selectOne("Family income", brackets, in.IncomeBracket); err != nil {
		return in, err
	}

	current := profile.DefaultMaxNetPrice
	if in.MaxNetPrice != nil {
		current = *in.MaxNetPrice
	}
	maxPrice, err := promptFloat("Maximum net price per year", current, 0, 1e6)
	if err != nil {
		return in, err
	}
	in.MaxNetPrice = &maxPrice

	policies := []string{profile.TestPolicyAny.String(), profile.TestOptionalFlexible.String(), profile.TestRequiredOnly.String()}
	if in.TestPolicy, err = selectOne("Test policy preference", policies, in.TestPolicy); err != nil {
		return in, err
	}

	levels := []string{profile.SelectivityAll.String(), profile.SafetySchools.String(), profile.TargetSchools.String(), profile.ReachSchools.String()}
	if in.Selectivity, err = selectOne("Selectivity", levels, in.Selectivity); err != nil {
		return in, err
	}

	return in, nil
}

func selectOne(label string, items []string, current string) (string, error) {
	cursor := 0
	for i, item := range items {
		if strings.EqualFold(item, strings.TrimSpace(current)) {
			cursor = i
			break
		}
	}

	sel := promptui.Select{
		Label:     label,
		Items:     items,
		CursorPos: cursor,
		Size:      10,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(items[index]), strings.ToLower(input))
		},
	}
	_, value, err := sel.Run()
	return value, err
}

func promptText(label, current string, validate promptui.ValidateFunc) (string, error) {
	p := promptui.Prompt{
		Label:     label,
		Default:   current,
		AllowEdit: true,
		Validate:  validate,
	}
	return p.Run()
}

func promptInt(label string, current, lo, hi int) (int, error) {
	def := ""
	if current != 0 {
		def = strconv.Itoa(current)
	}
	raw, err := promptText(label, def, func(s string) error {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return errors.New("enter a whole number")
		}
		if v < lo || v > hi {
			return fmt.Errorf("must be within [%d, %d]", lo, hi)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(raw))
}

func promptFloat(label string, current, lo, hi float64) (float64, error) {
	def := ""
	if current != 0 {
		def = strconv.FormatFloat(current, 'f', -1, 64)
	}
	raw, err := promptText(label, def, func(s string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return errors.New("enter a number")
		}
		if v < lo || v > hi {
			return fmt.Errorf("must be within [%g, %g]", lo, hi)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

func validStates(s string) error {
	for _, state := range splitList(s) {
		if _, ok := catalog.CanonicalState(state); !ok {
			return fmt.Errorf("unknown state %q", state)
		}
	}
	return nil
}

func validTypes(s string) error {
	for _, t := range splitList(s) {
		if _, err := catalog.ParseControlType(t); err != nil {
			return err
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
