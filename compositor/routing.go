package compositor

import (
	"errors"
	"fmt"
	"math"

	"github.com/robmorgan/hypertone/audio"
	"github.com/robmorgan/hypertone/engine/scale"
)

// Curve shapes a band value before it is scaled by the routing amount.
type Curve string

const (
	CurveLinear      Curve = "linear"
	CurveExponential Curve = "exponential"
	CurveLogarithmic Curve = "logarithmic"
)

// DefaultExponentialBase is the exponent used by the exponential curve.
const DefaultExponentialBase = 2.0

// MaxAmount is the largest routing amount.
const MaxAmount = 2.0

// Apply shapes x in [0,1]. base is the exponent of the exponential curve.
func (c Curve) Apply(x, base float64) float64 {
	switch c {
	case CurveExponential:
		return math.Pow(x, base)
	case CurveLogarithmic:
		return math.Log1p(x) / math.Ln2
	default:
		return x
	}
}

func (c Curve) valid() bool {
	switch c {
	case "", CurveLinear, CurveExponential, CurveLogarithmic:
		return true
	}
	return false
}

// Range is an inclusive clamp applied to a single routing's contribution.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Routing maps one audio band onto one parameter.
type Routing struct {
	Target     string  `yaml:"target"`
	Source     string  `yaml:"source"`
	Amount     float64 `yaml:"amount"`
	Curve      Curve   `yaml:"curve"`
	Threshold  float64 `yaml:"threshold"`
	Smoothing  float64 `yaml:"smoothing"`
	Invert     bool    `yaml:"invert"`
	RangeLimit *Range  `yaml:"range_limit,omitempty"`
}

// Validate checks the routing's fields are in range and its source band exists.
func (r Routing) Validate() error {
	var errs []error
	if r.Target == "" {
		errs = append(errs, errors.New("routing has no target parameter"))
	}
	if _, ok := audio.BandIndex(r.Source); !ok {
		errs = append(errs, fmt.Errorf("unknown source band %q", r.Source))
	}
	if r.Amount < 0 || r.Amount > MaxAmount {
		errs = append(errs, fmt.Errorf("amount %g outside [0,%g]", r.Amount, MaxAmount))
	}
	if !r.Curve.valid() {
		errs = append(errs, fmt.Errorf("unknown curve %q", r.Curve))
	}
	if r.Threshold < 0 || r.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold %g outside [0,1]", r.Threshold))
	}
	if r.Smoothing < 0 || r.Smoothing > 1 {
		errs = append(errs, fmt.Errorf("smoothing %g outside [0,1]", r.Smoothing))
	}
	if r.RangeLimit != nil && r.RangeLimit.Min > r.RangeLimit.Max {
		errs = append(errs, fmt.Errorf("range limit min %g above max %g", r.RangeLimit.Min, r.RangeLimit.Max))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("routing %s<-%s: %w", r.Target, r.Source, err)
	}
	return nil
}

// contribution turns a smoothed band value into this routing's share of the reaction offset.
func (r Routing) contribution(smoothed, reactionAmount, expBase float64) float64 {
	if smoothed < r.Threshold {
		return 0
	}
	x := r.Curve.Apply(smoothed, expBase)
	if r.Invert {
		x = 1 - x
	}
	x *= r.Amount * reactionAmount
	if r.RangeLimit != nil {
		x = scale.Clamp(x, r.RangeLimit.Min, r.RangeLimit.Max)
	}
	return x
}
