package config

import (
	"errors"
	"fmt"

	"github.com/robmorgan/hypertone/profile"
)

// PatchedParameter maps a parameter onto one DMX channel. The parameter's profile range is scaled to 0-255.
type PatchedParameter struct {
	Parameter string `yaml:"parameter"`
	Universe  int    `yaml:"universe"`
	Address   int    `yaml:"address"`
}

// DefaultPatch puts the non-rotation parameters on consecutive channels of universe 1.
func DefaultPatch() []PatchedParameter {
	params := []string{
		profile.ParamIntensity,
		profile.ParamChaos,
		profile.ParamSpeed,
		profile.ParamHue,
		profile.ParamSaturation,
		profile.ParamGridDensity,
		profile.ParamMorphFactor,
		profile.ParamDimension,
	}

	s := make([]PatchedParameter, 0, len(params)+len(profile.RotationParams))
	for i, p := range params {
		s = append(s, PatchedParameter{Parameter: p, Universe: 1, Address: i + 1})
	}
	for i, p := range profile.RotationParams {
		s = append(s, PatchedParameter{Parameter: p, Universe: 1, Address: len(params) + i + 1})
	}
	return s
}

// ValidatePatch checks addresses are in range, unique and reference known parameters.
func ValidatePatch(patch []PatchedParameter, profiles map[string]profile.Profile) error {
	var errs []error
	type slot struct{ universe, address int }
	used := make(map[slot]string)
	for _, p := range patch {
		if _, ok := profiles[p.Parameter]; !ok {
			errs = append(errs, fmt.Errorf("patch references unknown parameter %q", p.Parameter))
		}
		if p.Address < 1 || p.Address > 512 {
			errs = append(errs, fmt.Errorf("patch %s: address %d not in 1-512", p.Parameter, p.Address))
		}
		if p.Universe < 0 {
			errs = append(errs, fmt.Errorf("patch %s: negative universe", p.Parameter))
		}
		s := slot{p.Universe, p.Address}
		if other, ok := used[s]; ok {
			errs = append(errs, fmt.Errorf("patch %s: universe %d address %d already used by %s",
				p.Parameter, p.Universe, p.Address, other))
		}
		used[s] = p.Parameter
	}
	return errors.Join(errs...)
}
