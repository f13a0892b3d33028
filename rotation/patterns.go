package rotation

import (
	"math"
	"math/rand"
)

const (
	Smooth           = "smooth"
	HyperspaceSpiral = "hyperspace_spiral"
	BeatLocked       = "beat_locked"
	BassMomentum     = "bass_momentum"
	SpectralOrbit    = "spectral_orbit"
	EnergySweep      = "energy_sweep"
	ChaosSpin        = "chaos_spin"
	OnsetSnap        = "onset_snap"
)

// smooth: three phase-offset sinusoids whose amplitude follows the level.
type smoothPattern struct {
	shape ShapeFn
}

func (p *smoothPattern) Name() string { return Smooth }
func (p *smoothPattern) Reset()       {}

func (p *smoothPattern) Update(in Inputs) Angles {
	t := in.TimeMs / 1000 * 0.3
	amp := 0.5 + in.RMS
	return Angles{
		XW: p.shape(t) * amp,
		YW: p.shape(t+TWO_PI/3) * amp,
		ZW: p.shape(t+2*TWO_PI/3) * amp,
	}
}

// hyperspace_spiral: three simultaneous sinusoids at distinct frequencies, the first locked to the beat phase.
type spiralPattern struct{}

func (p *spiralPattern) Name() string { return HyperspaceSpiral }
func (p *spiralPattern) Reset()       {}

func (p *spiralPattern) Update(in Inputs) Angles {
	t := in.TimeMs / 1000
	amp := 1 + in.RMS
	return Angles{
		XW: math.Sin(t*0.7+TWO_PI*in.BeatPhase) * amp,
		YW: math.Sin(t*1.1) * amp * 0.8,
		ZW: math.Sin(t*1.7) * amp * 0.6,
	}
}

// beat_locked: snaps to one of sixteen positions per beat.
type beatLockedPattern struct{}

func (p *beatLockedPattern) Name() string { return BeatLocked }
func (p *beatLockedPattern) Reset()       {}

func (p *beatLockedPattern) Update(in Inputs) Angles {
	step := in.BeatIndex % 16
	if step < 0 {
		step += 16
	}
	a := float64(step) * TWO_PI / 16
	return Angles{XW: a, YW: a * 0.5, ZW: a * 0.25}
}

// DefaultMomentumDecay is the per-tick decay of bass momentum.
const DefaultMomentumDecay = 0.98

// BassHitThreshold is the bass level above which momentum accumulates.
const BassHitThreshold = 0.6

// AccumulateMomentum decays m and, on a bass hit, adds 0.3·bass to ZW and 0.1·bass to XW.
func AccumulateMomentum(m Angles, bass, decay float64) Angles {
	m.XW *= decay
	m.YW *= decay
	m.ZW *= decay
	if bass > BassHitThreshold {
		m.ZW += 0.3 * bass
		m.XW += 0.1 * bass
	}
	return m
}

// bass_momentum: kicks push the rotation which then coasts down.
type bassMomentumPattern struct {
	decay    float64
	momentum Angles
}

func (p *bassMomentumPattern) Name() string { return BassMomentum }
func (p *bassMomentumPattern) Reset()       { p.momentum = Angles{} }

func (p *bassMomentumPattern) Update(in Inputs) Angles {
	p.momentum = AccumulateMomentum(p.momentum, in.Bass, p.decay)
	return p.momentum
}

// Momentum returns the accumulated momentum.
func (p *bassMomentumPattern) Momentum() Angles {
	return p.momentum
}

// spectral_orbit: rotation speed proportional to the spectral centroid.
type spectralOrbitPattern struct {
	phase float64
}

func (p *spectralOrbitPattern) Name() string { return SpectralOrbit }
func (p *spectralOrbitPattern) Reset()       { p.phase = 0 }

func (p *spectralOrbitPattern) Update(in Inputs) Angles {
	// one radian per second for every kHz of centroid
	speed := in.CentroidHz / 1000
	p.phase = math.Mod(p.phase+speed*in.DeltaMs/1000, TWO_PI)
	return Angles{
		XW: math.Sin(p.phase) * math.Pi,
		YW: math.Cos(p.phase) * math.Pi / 2,
		ZW: math.Sin(p.phase*0.5) * math.Pi / 3,
	}
}

// energy_sweep: integrates a phase by rms·dt·0.001.
type energySweepPattern struct {
	phase float64
}

func (p *energySweepPattern) Name() string { return EnergySweep }
func (p *energySweepPattern) Reset()       { p.phase = 0 }

func (p *energySweepPattern) Update(in Inputs) Angles {
	p.phase += in.RMS * in.DeltaMs * 0.001
	return Angles{
		XW: math.Sin(p.phase) * math.Pi,
		YW: math.Sin(p.phase*1.3) * math.Pi / 2,
		ZW: math.Sin(p.phase*0.7) * math.Pi / 4,
	}
}

// chaos_spin: random angles weighted by chaos, blended with a smooth sinusoid.
type chaosSpinPattern struct {
	rnd *rand.Rand
}

func (p *chaosSpinPattern) Name() string { return ChaosSpin }
func (p *chaosSpinPattern) Reset()       {}

func (p *chaosSpinPattern) Update(in Inputs) Angles {
	chaos := math.Max(0, math.Min(1, in.Chaos))
	t := in.TimeMs / 1000
	mix := func(smooth float64) float64 {
		return chaos*p.randomAngle() + (1-chaos)*smooth
	}
	return Angles{
		XW: mix(math.Sin(t * 0.5)),
		YW: mix(math.Sin(t*0.5 + TWO_PI/3)),
		ZW: mix(math.Sin(t*0.5 + 2*TWO_PI/3)),
	}
}

func (p *chaosSpinPattern) randomAngle() float64 {
	return (p.rnd.Float64()*2 - 1) * math.Pi
}

const (
	snapMinStrength = 0.5
	snapMinGapMs    = 500.0
	snapRate        = 0.1
)

// onset_snap: strong onsets pick a new random target; the current angles ease toward it.
type onsetSnapPattern struct {
	rnd      *rand.Rand
	current  Angles
	target   Angles
	lastSnap float64
	snapped  bool
}

func (p *onsetSnapPattern) Name() string { return OnsetSnap }

func (p *onsetSnapPattern) Reset() {
	p.current = Angles{}
	p.target = Angles{}
	p.lastSnap = 0
	p.snapped = false
}

func (p *onsetSnapPattern) Update(in Inputs) Angles {
	fresh := in.OnsetDetected && in.OnsetStrength > snapMinStrength
	if fresh && (!p.snapped || in.TimeMs-p.lastSnap >= snapMinGapMs) {
		p.target = Angles{XW: p.randomAngle(), YW: p.randomAngle(), ZW: p.randomAngle()}
		p.lastSnap = in.TimeMs
		p.snapped = true
	}

	p.current.XW += (p.target.XW - p.current.XW) * snapRate
	p.current.YW += (p.target.YW - p.current.YW) * snapRate
	p.current.ZW += (p.target.ZW - p.current.ZW) * snapRate
	return p.current
}

func (p *onsetSnapPattern) randomAngle() float64 {
	return (p.rnd.Float64()*2 - 1) * math.Pi
}
