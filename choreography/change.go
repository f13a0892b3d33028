package choreography

import (
	"fmt"
	"math"
)

// Endpoint is one end of an interpolation: a fixed value, or the parameter's live value at evaluation time.
type Endpoint struct {
	Value   float64
	Current bool
}

// Fixed returns a constant endpoint.
func Fixed(v float64) Endpoint {
	return Endpoint{Value: v}
}

// Current returns the endpoint that reads the parameter's live value.
func Current() Endpoint {
	return Endpoint{Current: true}
}

func (e Endpoint) resolve(live float64) float64 {
	if e.Current {
		return live
	}
	return e.Value
}

func (e Endpoint) String() string {
	if e.Current {
		return "current"
	}
	return fmt.Sprintf("%g", e.Value)
}

// ChangeSpec describes how a stage drives one parameter. It is one of Interpolate, SpikeDecay or Jump.
type ChangeSpec interface {
	// Value returns the choreography offset at stage progress in [0,1). live is the parameter's current value.
	Value(progress, live float64) float64
	validate() error
}

// Interpolate eases from From to To across the stage.
type Interpolate struct {
	From   Endpoint
	To     Endpoint
	Easing string
}

func (i Interpolate) Value(progress, live float64) float64 {
	fn, ok := Easing(i.Easing)
	if !ok {
		fn, _ = Easing(EaseLinear)
	}
	from, to := i.From.resolve(live), i.To.resolve(live)
	return from + (to-from)*fn(progress)
}

func (i Interpolate) validate() error {
	if _, ok := Easing(i.Easing); !ok {
		return fmt.Errorf("unknown easing %q", i.Easing)
	}
	return nil
}

// SpikeDecay jumps to Spike and decays geometrically: spike · decay^(progress·100).
type SpikeDecay struct {
	Spike float64
	Decay float64
}

func (s SpikeDecay) Value(progress, _ float64) float64 {
	return s.Spike * math.Pow(s.Decay, progress*100)
}

func (s SpikeDecay) validate() error {
	if s.Decay <= 0 || s.Decay > 1 {
		return fmt.Errorf("decay %g outside (0,1]", s.Decay)
	}
	return nil
}

// Jump holds a constant value for the whole stage.
type Jump struct {
	To float64
}

func (j Jump) Value(float64, float64) float64 {
	return j.To
}

func (j Jump) validate() error {
	return nil
}
