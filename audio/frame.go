package audio

import "time"

// Onset is a detected sudden increase in spectral energy.
type Onset struct {
	Detected bool
	Strength float64
	Time     time.Time
}

// RhythmPhases are pulse shapes derived from the extractor's running beat clock.
type RhythmPhases struct {
	Beat      float64
	Measure   float64
	Swing     float64
	Triplet   float64
	Quintuple float64
	Septuple  float64
}

// ExtremeDynamics are exaggerated energy descriptors used to push visual parameters hard.
type ExtremeDynamics struct {
	IntensityExponent float64
	DimensionLift     float64
	ChaosSurge        float64
	MotionVelocity    float64
}

// ColorChoreography are colour cues derived from the spectrum and the measure position.
type ColorChoreography struct {
	// Orbit is a hue in degrees.
	Orbit           float64
	SaturationPulse float64
	Ribbon          float64
	// DownbeatColor is a hex colour, e.g. "#3fa2ff".
	DownbeatColor string
}

// Frame is the immutable per-tick snapshot produced by the Extractor.
type Frame struct {
	Time  time.Time
	Bands Bands

	SpectralCentroid float64
	SpectralRolloff  float64
	SpectralFlux     float64
	RMS              float64

	Onset Onset
	BPM   float64

	Rhythm   RhythmPhases
	Dynamics ExtremeDynamics
	Color    ColorChoreography
}

// Band returns the smoothed value of the named band. "air" is accepted as an alias of "ultraHigh".
func (f Frame) Band(name string) float64 {
	return f.Bands.Value(name)
}

// Bass is the value of the bass band.
func (f Frame) Bass() float64 {
	return f.Bands.Value(BandBass)
}

// Mid is the value of the mid band.
func (f Frame) Mid() float64 {
	return f.Bands.Value(BandMid)
}

// High is the mean of the four upper bands.
func (f Frame) High() float64 {
	return (f.Bands.Value(BandHighMid) + f.Bands.Value(BandPresence) +
		f.Bands.Value(BandBrilliance) + f.Bands.Value(BandUltraHigh)) / 4
}

// Energy is the RMS level of the waveform.
func (f Frame) Energy() float64 {
	return f.RMS
}

// CentroidHz converts the normalized centroid back to Hz.
func (f Frame) CentroidHz() float64 {
	return f.SpectralCentroid * CentroidAnchorHz
}
