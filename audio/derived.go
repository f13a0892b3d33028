package audio

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/robmorgan/hypertone/engine/scale"
)

const beatsPerMeasure = 4

// derive fills the rhythm, dynamics and colour fields from the already measured features. The beat clock is
// integrated frame by frame so tempo changes never make the phase jump.
func (e *Extractor) derive(f *Frame) {
	if !e.lastFrame.IsZero() && f.Time.After(e.lastFrame) && f.BPM > 0 {
		dtMs := float64(f.Time.Sub(e.lastFrame)) / 1e6
		e.beatPos += dtMs / (60000 / f.BPM)
	}
	e.lastFrame = f.Time

	beat := scale.Frac(e.beatPos)
	measure := scale.Frac(e.beatPos / beatsPerMeasure)
	f.Rhythm = RhythmPhases{
		Beat:      beat,
		Measure:   measure,
		Swing:     swingPulse(scale.Frac(e.beatPos / 2)),
		Triplet:   pulse(scale.Frac(e.beatPos * 3)),
		Quintuple: pulse(scale.Frac(e.beatPos * 5)),
		Septuple:  pulse(scale.Frac(e.beatPos * 7)),
	}

	onsetStrength := 0.0
	if f.Onset.Detected {
		onsetStrength = f.Onset.Strength
	}
	surge := f.SpectralFlux
	if f.Onset.Detected {
		surge *= 3
	}
	e.motion = Smooth(e.motion, f.RMS*f.BPM/DefaultBPM, 0.9)
	f.Dynamics = ExtremeDynamics{
		IntensityExponent: 1 + 2*f.RMS,
		DimensionLift:     scale.Unit(0.6*f.Bass() + 0.4*onsetStrength),
		ChaosSurge:        scale.Unit(surge),
		MotionVelocity:    scale.Clamp(e.motion, 0, 2),
	}

	orbit := scale.Frac(measure+f.SpectralCentroid*0.5) * 360
	sat := scale.Unit(0.6 + 0.4*f.High()*(1-beat))
	f.Color = ColorChoreography{
		Orbit:           orbit,
		SaturationPulse: sat,
		Ribbon:          math.Sin(2*math.Pi*measure) * f.Mid(),
		DownbeatColor:   colorful.Hsv(orbit, sat, 0.4+0.6*f.RMS).Hex(),
	}
}

// pulse is a decaying accent that peaks at phase 0.
func pulse(phase float64) float64 {
	return (1 - phase) * (1 - phase)
}

// swingPulse accents the downbeat and a late offbeat at two thirds of a two-beat cycle.
func swingPulse(phase float64) float64 {
	const offbeat = 2.0 / 3.0
	if phase < offbeat {
		return pulse(phase / offbeat)
	}
	return 0.7 * pulse((phase-offbeat)/(1-offbeat))
}
