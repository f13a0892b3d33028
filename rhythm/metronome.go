package rhythm

import (
	"math"
	"time"
)

// Metronome establishes a beat timeline from a start instant and a tempo.
// Originally based on https://github.com/Deep-Symmetry/electro/blob/main/src/main/java/org/deepsymmetry/electro/Metronome.java#L449
type Metronome struct {
	startTime     time.Time
	tempo         float64
	beatsPerBar   int
}

// NewMetronome creates a Metronome whose first beat starts at start.
func NewMetronome(start time.Time, bpm float64) *Metronome {
	return &Metronome{
		startTime:     start,
		tempo:         bpm,
		beatsPerBar:   4,
	}
}

func (m *Metronome) GetTempo() float64 {
	return m.tempo
}

// SetTempo sets a new tempo for the Metronome. The start time will be adjusted so that the current beat and
// phase at instant are unaffected by the tempo change.
func (m *Metronome) SetTempo(bpm float64, instant time.Time) {
	if bpm <= 0 || bpm == m.tempo {
		return
	}

	interval := m.GetBeatInterval()
	beat := markerNumber(instant, m.startTime, interval)
	phase := markerPhase(instant, m.startTime, interval)
	newInterval := beatsToMilliseconds(1, bpm)
	offset := newInterval * (phase + float64(beat) - 1)
	m.startTime = instant.Add(-time.Duration(math.Round(offset * float64(time.Millisecond))))
	m.tempo = bpm
}

// GetBeatInterval returns the number of milliseconds a beat lasts.
func (m *Metronome) GetBeatInterval() float64 {
	return beatsToMilliseconds(1, m.tempo)
}

// GetSnapshot samples the timeline at instant.
func (m *Metronome) GetSnapshot(instant time.Time) Snapshot {
	return Snapshot{
		Instant:     instant,
		StartTime:   m.startTime,
		Tempo:       m.tempo,
		BeatsPerBar: m.beatsPerBar,
	}
}

// beatsToMilliseconds calculates milliseconds for given beats and tempo
func beatsToMilliseconds(beats int, tempo float64) float64 {
	return (60000.0 / tempo) * float64(beats)
}

func elapsedMilliseconds(instant, start time.Time) float64 {
	return float64(instant.Sub(start)) / float64(time.Millisecond)
}

// markerNumber calculates the 1-based marker number
func markerNumber(instant, start time.Time, interval float64) int64 {
	return int64(math.Floor(elapsedMilliseconds(instant, start)/interval)) + 1
}

// markerPhase calculates the phase of a marker
func markerPhase(instant, start time.Time, interval float64) float64 {
	ratio := elapsedMilliseconds(instant, start) / interval
	return ratio - math.Floor(ratio)
}
