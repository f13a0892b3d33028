package rhythm

import (
	"fmt"
	"time"
)

// Snapshot captures the metronome timeline at one instant.
type Snapshot struct {
	Instant     time.Time
	StartTime   time.Time
	Tempo       float64
	BeatsPerBar int
}

// GetBeatInterval gets the metronome's beat length in milliseconds.
func (s Snapshot) GetBeatInterval() float64 {
	return beatsToMilliseconds(1, s.Tempo)
}

// GetBarInterval gets the metronome's bar length in milliseconds.
func (s Snapshot) GetBarInterval() float64 {
	return beatsToMilliseconds(s.BeatsPerBar, s.Tempo)
}

// GetBeat gets the metronome's 1-based beat number.
func (s Snapshot) GetBeat() int64 {
	return markerNumber(s.Instant, s.StartTime, s.GetBeatInterval())
}

// BeatIndex is floor(elapsed / beatInterval), the 0-based beat count since the start.
func (s Snapshot) BeatIndex() int64 {
	return s.GetBeat() - 1
}

// GetBar gets the metronome's 1-based bar number.
func (s Snapshot) GetBar() int64 {
	return markerNumber(s.Instant, s.StartTime, s.GetBarInterval())
}

// GetBeatPhase gets the metronome's beat phase at the time of the snapshot.
func (s Snapshot) GetBeatPhase() float64 {
	return markerPhase(s.Instant, s.StartTime, s.GetBeatInterval())
}

// GetBarPhase gets the metronome's bar phase at the time of the snapshot.
func (s Snapshot) GetBarPhase() float64 {
	return markerPhase(s.Instant, s.StartTime, s.GetBarInterval())
}

// GetBeatWithinBar returns the 1-based beat number of the snapshot relative to the start of the bar.
func (s Snapshot) GetBeatWithinBar() int {
	return int(s.BeatIndex()%int64(s.BeatsPerBar)) + 1
}

// IsDownBeat checks whether the current beat was the first beat in its bar.
func (s Snapshot) IsDownBeat() bool {
	return s.BeatIndex()%int64(s.BeatsPerBar) == 0
}

// IsBackBeat checks whether the current beat is the third beat of a 4/4 bar.
func (s Snapshot) IsBackBeat() bool {
	return s.BeatIndex()%int64(s.BeatsPerBar) == 2
}

// GetMarker returns the time represented by the snapshot as "bar.beat".
func (s Snapshot) GetMarker() string {
	return fmt.Sprintf("%d.%d", s.GetBar(), s.GetBeatWithinBar())
}
