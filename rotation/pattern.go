package rotation

import (
	"errors"
	"math"
)

// TWO_PI is a full turn in radians.
const TWO_PI = 2 * math.Pi

// ErrUnknownPattern is returned when a pattern name is not registered.
var ErrUnknownPattern = errors.New("unknown rotation pattern")

// Angles are rotations, in radians, within the XW, YW and ZW hyperplanes.
type Angles struct {
	XW float64
	YW float64
	ZW float64
}

// Inputs are the per-tick signals a pattern may read.
type Inputs struct {
	// TimeMs is the time since the engine started.
	TimeMs float64
	// DeltaMs is the time since the previous tick.
	DeltaMs float64

	BeatIndex int64
	BeatPhase float64
	BPM       float64

	RMS        float64
	Bass       float64
	CentroidHz float64

	OnsetDetected bool
	OnsetStrength float64

	// Chaos is the live value of the chaos parameter.
	Chaos float64
}

// Pattern maps inputs to hyperplane angles. Stateful patterns keep their state between calls until Reset.
type Pattern interface {
	Name() string
	Update(in Inputs) Angles
	Reset()
}

// ShapeFn determines the shape of a periodic waveform.
type ShapeFn func(phase float64) float64

func sineShape(phase float64) float64 {
	return math.Sin(phase)
}
