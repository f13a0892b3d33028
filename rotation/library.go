package rotation

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Library is a registry of named rotation patterns with exactly one active pattern. Switching the active
// pattern never touches the state of the others.
type Library struct {
	patterns map[string]Pattern
	order    []string
	active   string
	log      logrus.FieldLogger
}

// NewLibrary registers the built-in patterns and activates "smooth". rnd drives the random patterns; decay is
// the bass momentum decay (DefaultMomentumDecay when <= 0).
func NewLibrary(rnd *rand.Rand, decay float64, log logrus.FieldLogger) *Library {
	if decay <= 0 || decay > 1 {
		decay = DefaultMomentumDecay
	}

	l := &Library{
		patterns: make(map[string]Pattern),
		log:      log,
	}
	l.Register(&smoothPattern{shape: sineShape})
	l.Register(&spiralPattern{})
	l.Register(&beatLockedPattern{})
	l.Register(&bassMomentumPattern{decay: decay})
	l.Register(&spectralOrbitPattern{})
	l.Register(&energySweepPattern{})
	l.Register(&chaosSpinPattern{rnd: rnd})
	l.Register(&onsetSnapPattern{rnd: rnd})
	l.active = Smooth
	return l
}

// Register adds or replaces a pattern.
func (l *Library) Register(p Pattern) {
	if _, found := l.patterns[p.Name()]; !found {
		l.order = append(l.order, p.Name())
	}
	l.patterns[p.Name()] = p
}

// Names lists the registered patterns in registration order.
func (l *Library) Names() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Get returns a registered pattern.
func (l *Library) Get(name string) (Pattern, bool) {
	p, found := l.patterns[name]
	return p, found
}

// Active returns the name of the active pattern.
func (l *Library) Active() string {
	return l.active
}

// SetActive switches the active pattern. Unknown names leave the active pattern unchanged.
func (l *Library) SetActive(name string) error {
	if _, found := l.patterns[name]; !found {
		return fmt.Errorf("%w: %s", ErrUnknownPattern, name)
	}
	if name != l.active {
		l.log.WithFields(logrus.Fields{"from": l.active, "pattern": name}).Info("Rotation pattern changed")
	}
	l.active = name
	return nil
}

// Update advances the active pattern only.
func (l *Library) Update(in Inputs) Angles {
	return l.patterns[l.active].Update(in)
}

// Reset clears the internal state of one pattern.
func (l *Library) Reset(name string) error {
	p, found := l.patterns[name]
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownPattern, name)
	}
	p.Reset()
	return nil
}

// ResetAll clears the internal state of every pattern.
func (l *Library) ResetAll() {
	for _, p := range l.patterns {
		p.Reset()
	}
}
