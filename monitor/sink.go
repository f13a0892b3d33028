package monitor

import "github.com/robmorgan/hypertone/engine"

// Sink forwards snapshots to the monitor without ever blocking the tick loop. When the monitor falls behind the
// oldest pending snapshot is replaced.
type Sink struct {
	ch chan engine.Snapshot
}

// NewSink creates a sink with room for one pending snapshot.
func NewSink() *Sink {
	return &Sink{ch: make(chan engine.Snapshot, 1)}
}

// Snapshots is read by the monitor model.
func (s *Sink) Snapshots() <-chan engine.Snapshot {
	return s.ch
}

func (s *Sink) Name() string {
	return "monitor"
}

func (s *Sink) Send(snap engine.Snapshot) error {
	select {
	case s.ch <- snap:
		return nil
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snap:
	default:
	}
	return nil
}
