package rhythm

import "time"

// Hook is called when the tracker crosses into a new beat.
type Hook func(Snapshot)

// Tracker follows a changing tempo and reports beat boundaries. It is driven once per tick and is not safe for
// concurrent use.
type Tracker struct {
	metronome *Metronome
	lastBeat  int64

	onBeat     []Hook
	onDownbeat []Hook
	onBackbeat []Hook
}

// NewTracker starts a beat timeline at start.
func NewTracker(start time.Time, bpm float64) *Tracker {
	return &Tracker{
		metronome: NewMetronome(start, bpm),
		lastBeat:  -1,
	}
}

// OnBeat registers a hook fired on every new beat.
func (t *Tracker) OnBeat(h Hook) {
	t.onBeat = append(t.onBeat, h)
}

// OnDownbeat registers a hook fired when beat%4 == 0.
func (t *Tracker) OnDownbeat(h Hook) {
	t.onDownbeat = append(t.onDownbeat, h)
}

// OnBackbeat registers a hook fired when beat%4 == 2.
func (t *Tracker) OnBackbeat(h Hook) {
	t.onBackbeat = append(t.onBackbeat, h)
}

// Reset restarts the timeline at start.
func (t *Tracker) Reset(start time.Time) {
	t.metronome = NewMetronome(start, t.metronome.GetTempo())
	t.lastBeat = -1
}

// Update applies the latest tempo estimate and returns the snapshot at now. Hooks fire at most once per tick,
// for the beat now current, when it is later than the last reported beat.
func (t *Tracker) Update(now time.Time, bpm float64) Snapshot {
	t.metronome.SetTempo(bpm, now)
	s := t.metronome.GetSnapshot(now)

	beat := s.BeatIndex()
	if beat <= t.lastBeat {
		return s
	}
	t.lastBeat = beat

	for _, h := range t.onBeat {
		h(s)
	}
	if s.IsDownBeat() {
		for _, h := range t.onDownbeat {
			h(s)
		}
	}
	if s.IsBackBeat() {
		for _, h := range t.onBackbeat {
			h(s)
		}
	}
	return s
}
