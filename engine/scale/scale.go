package scale

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Clamp limits t to the closed interval spanned by lo and hi. The bounds may be given in either order.
func Clamp[T constraints.Integer | constraints.Float](t, lo, hi T) T {
	if lo > hi {
		lo, hi = hi, lo
	}
	if t < lo {
		return lo
	}
	if t > hi {
		return hi
	}
	return t
}

// Unit clamps t to [0,1]. NaN maps to 0.
func Unit(t float64) float64 {
	if math.IsNaN(t) {
		return 0
	}
	return Clamp(t, 0, 1)
}

// Linear returns a function that maps [rMin,rMax] onto [tMin,tMax] and clamps the result to the target
// interval.
func Linear(rMin, rMax, tMin, tMax float64) func(m float64) float64 {
	return func(m float64) float64 {
		if rMax == rMin {
			return tMin
		}
		v := (m-rMin)/(rMax-rMin)*(tMax-tMin) + tMin
		return Clamp(v, tMin, tMax)
	}
}

// ToUnitClamp returns a function that scales a number from the interval [rMin,rMax]
// to the unit interval ([0,1]), if the result falls outside [0,1], it is clamped
// to 0 or 1.
func ToUnitClamp(rMin, rMax float64) func(m float64) float64 {
	return Linear(rMin, rMax, 0, 1)
}

// FromUnit scales a unit value onto [tMin,tMax].
func FromUnit(tMin, tMax float64) func(m float64) float64 {
	return Linear(0, 1, tMin, tMax)
}

// Frac returns the fractional part of x in [0,1).
func Frac(x float64) float64 {
	return x - math.Floor(x)
}
