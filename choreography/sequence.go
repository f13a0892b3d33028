package choreography

import (
	"errors"
	"fmt"
	"time"

	"github.com/robmorgan/hypertone/trigger"
	"golang.org/x/exp/slices"
)

var (
	// ErrUnknownSequence is returned when a sequence name is not defined.
	ErrUnknownSequence = errors.New("unknown sequence")

	// ErrInvalidLibrary is returned when sequence definitions fail validation.
	ErrInvalidLibrary = errors.New("invalid sequence library")
)

// Stage is a window of a sequence during which a set of parameters is driven.
type Stage struct {
	Start    time.Duration
	Duration time.Duration
	Changes  map[string]ChangeSpec
}

// End returns the first instant after the stage window.
func (s Stage) End() time.Duration {
	return s.Start + s.Duration
}

// Contains reports whether elapsed lies in the half-open window [Start, Start+Duration).
func (s Stage) Contains(elapsed time.Duration) bool {
	return elapsed >= s.Start && elapsed < s.End()
}

// Progress returns (elapsed-Start)/Duration.
func (s Stage) Progress(elapsed time.Duration) float64 {
	return float64(elapsed-s.Start) / float64(s.Duration)
}

// Sequence is an authored timeline of stages, started when its trigger fires.
type Sequence struct {
	Name     string
	Duration time.Duration
	Trigger  trigger.Predicate
	Stages   []Stage
}

// StageAt returns the first stage containing elapsed and the progress through it.
func (s *Sequence) StageAt(elapsed time.Duration) (Stage, float64, bool) {
	for _, st := range s.Stages {
		if st.Contains(elapsed) {
			return st, st.Progress(elapsed), true
		}
	}
	return Stage{}, 0, false
}

// Validate checks durations, change specs and that stages are sorted, non-overlapping and inside the sequence.
func (s *Sequence) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("sequence has no name"))
	}
	if s.Duration <= 0 {
		errs = append(errs, fmt.Errorf("sequence %q: duration must be positive", s.Name))
	}

	for i, st := range s.Stages {
		if st.Duration <= 0 {
			errs = append(errs, fmt.Errorf("sequence %q stage %d: duration must be positive", s.Name, i))
		}
		if st.Start < 0 || st.End() > s.Duration {
			errs = append(errs, fmt.Errorf("sequence %q stage %d: window [%v,%v) outside sequence duration %v",
				s.Name, i, st.Start, st.End(), s.Duration))
		}
		if i > 0 && st.Start < s.Stages[i-1].End() {
			errs = append(errs, fmt.Errorf("sequence %q stage %d: overlaps or precedes stage %d", s.Name, i, i-1))
		}
		for param, change := range st.Changes {
			if change == nil {
				errs = append(errs, fmt.Errorf("sequence %q stage %d: %s has no change", s.Name, i, param))
				continue
			}
			if err := change.validate(); err != nil {
				errs = append(errs, fmt.Errorf("sequence %q stage %d: %s: %w", s.Name, i, param, err))
			}
		}
	}

	return errors.Join(errs...)
}

// validateAll validates every sequence and checks names are unique.
func validateAll(seqs []Sequence) error {
	var errs []error
	seen := make(map[string]bool, len(seqs))
	for i := range seqs {
		if err := seqs[i].Validate(); err != nil {
			errs = append(errs, err)
		}
		if seen[seqs[i].Name] {
			errs = append(errs, fmt.Errorf("sequence %q defined more than once", seqs[i].Name))
		}
		seen[seqs[i].Name] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidLibrary, errors.Join(errs...))
	}
	return nil
}

// sortedParams returns the stage's parameter names in a stable order.
func (s Stage) sortedParams() []string {
	names := make([]string, 0, len(s.Changes))
	for name := range s.Changes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
