package choreography

import (
	"time"

	"github.com/robmorgan/hypertone/audio"
	"github.com/robmorgan/hypertone/rotation"
	"github.com/robmorgan/hypertone/trigger"
)

const (
	maxBassHits      = 10
	maxEnergyHistory = 20

	// PredictionWindow is how close to the predicted next bass hit a tick must be for "predicted" to hold.
	PredictionWindow = 60 * time.Millisecond

	// DefaultTrendDeadBand is the per-frame energy slope below which the trend is considered stable.
	DefaultTrendDeadBand = 0.005
)

// Trend is the direction the energy has been moving in recently.
type Trend int

const (
	TrendStable Trend = iota
	TrendBuilding
	TrendReleasing
)

func (t Trend) String() string {
	switch t {
	case TrendBuilding:
		return "building"
	case TrendReleasing:
		return "releasing"
	default:
		return "stable"
	}
}

// Memory is the musical context the orchestrator carries between ticks.
type Memory struct {
	RecentBassHits    []time.Time
	PredictedNextBass time.Time
	EnergyHistory     []float64
	EnergyTrend       Trend
	RotationMomentum  rotation.Angles
	LastOnsetTime     time.Time
	LastOnset         audio.Onset
}

// Clone returns a deep copy.
func (m Memory) Clone() Memory {
	m.RecentBassHits = append([]time.Time(nil), m.RecentBassHits...)
	m.EnergyHistory = append([]float64(nil), m.EnergyHistory...)
	return m
}

// HasPrediction reports whether a next bass hit has been predicted.
func (m *Memory) HasPrediction() bool {
	return !m.PredictedNextBass.IsZero()
}

// Predicted reports whether now is within PredictionWindow of the predicted next bass hit.
func (m *Memory) Predicted(now time.Time) bool {
	if !m.HasPrediction() {
		return false
	}
	d := now.Sub(m.PredictedNextBass)
	if d < 0 {
		d = -d
	}
	return d <= PredictionWindow
}

func (m *Memory) update(frame audio.Frame, now time.Time, deadBand, momentumDecay float64) {
	bass := frame.Bass()

	if frame.Onset.Detected {
		m.LastOnsetTime = now
		m.LastOnset = frame.Onset
		if bass > rotation.BassHitThreshold {
			m.recordBassHit(now)
		}
	}

	m.EnergyHistory = append(m.EnergyHistory, frame.Energy())
	if len(m.EnergyHistory) > maxEnergyHistory {
		m.EnergyHistory = m.EnergyHistory[len(m.EnergyHistory)-maxEnergyHistory:]
	}
	m.EnergyTrend = trendOf(m.EnergyHistory, deadBand)

	m.RotationMomentum = rotation.AccumulateMomentum(m.RotationMomentum, bass, momentumDecay)
}

func (m *Memory) recordBassHit(now time.Time) {
	m.RecentBassHits = append(m.RecentBassHits, now)
	if len(m.RecentBassHits) > maxBassHits {
		m.RecentBassHits = m.RecentBassHits[len(m.RecentBassHits)-maxBassHits:]
	}

	n := len(m.RecentBassHits)
	if n < 3 {
		m.PredictedNextBass = time.Time{}
		return
	}
	span := m.RecentBassHits[n-1].Sub(m.RecentBassHits[0])
	m.PredictedNextBass = now.Add(span / time.Duration(n-1))
}

// trendOf fits a least-squares line over the history and classifies its slope.
func trendOf(history []float64, deadBand float64) Trend {
	n := len(history)
	if n < 3 {
		return TrendStable
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range history {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	nf := float64(n)
	slope := (nf*sumXY - sumX*sumY) / (nf*sumXX - sumX*sumX)

	switch {
	case slope > deadBand:
		return TrendBuilding
	case slope < -deadBand:
		return TrendReleasing
	default:
		return TrendStable
	}
}

// vars builds the trigger variables for frame and memory at now.
func (m *Memory) vars(frame audio.Frame, now time.Time) trigger.Vars {
	b := func(v bool) float64 {
		if v {
			return 1
		}
		return 0
	}
	return trigger.Vars{
		trigger.VarBass:      frame.Bass(),
		trigger.VarMid:       frame.Mid(),
		trigger.VarHigh:      frame.High(),
		trigger.VarEnergy:    frame.Energy(),
		trigger.VarOnset:     b(frame.Onset.Detected),
		trigger.VarFlux:      frame.SpectralFlux,
		trigger.VarCentroid:  frame.SpectralCentroid,
		trigger.VarBPM:       frame.BPM,
		trigger.VarBuilding:  b(m.EnergyTrend == TrendBuilding),
		trigger.VarReleasing: b(m.EnergyTrend == TrendReleasing),
		trigger.VarPredicted: b(m.Predicted(now)),
	}
}
