package audio

import (
	"time"

	"github.com/robmorgan/hypertone/engine/scale"
	"golang.org/x/exp/slices"
)

// minOnsetsForTempo is the number of recorded onsets needed before the tempo estimate moves.
const minOnsetsForTempo = 4

// bpmTracker estimates tempo from the median inter-onset interval.
type bpmTracker struct {
	onsets   []time.Time
	capacity int
	bpm      float64
}

func newBPMTracker(capacity int, initial float64) *bpmTracker {
	return &bpmTracker{
		onsets:   make([]time.Time, 0, capacity),
		capacity: capacity,
		bpm:      initial,
	}
}

// BPM returns the current estimate.
func (b *bpmTracker) BPM() float64 {
	return b.bpm
}

// Record appends an onset timestamp and returns the updated estimate.
func (b *bpmTracker) Record(t time.Time) float64 {
	b.onsets = append(b.onsets, t)
	if len(b.onsets) > b.capacity {
		b.onsets = b.onsets[len(b.onsets)-b.capacity:]
	}
	if len(b.onsets) < minOnsetsForTempo {
		return b.bpm
	}

	intervals := make([]float64, 0, len(b.onsets)-1)
	for i := 1; i < len(b.onsets); i++ {
		intervals = append(intervals, float64(b.onsets[i].Sub(b.onsets[i-1]))/float64(time.Millisecond))
	}

	if m := median(intervals); m > 0 {
		b.bpm = scale.Clamp(60000/m, MinBPM, MaxBPM)
	}
	return b.bpm
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
