package compositor

import (
	"errors"
	"fmt"

	"github.com/robmorgan/hypertone/audio"
	"github.com/robmorgan/hypertone/engine/scale"
	"github.com/robmorgan/hypertone/profile"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ErrUnknownParameter is returned when a parameter has no profile.
var ErrUnknownParameter = errors.New("unknown parameter")

// Settings are the blend policy knobs.
type Settings struct {
	Mode            ControlMode `yaml:"mode"`
	Balance         BalanceMode `yaml:"balance"`
	Weights         Weights     `yaml:"weights"`
	ReactionAmount  float64     `yaml:"reaction_amount"`
	ExponentialBase float64     `yaml:"exponential_base"`
}

// DefaultSettings returns independent blending of all layers at full weight.
func DefaultSettings() Settings {
	return Settings{
		Mode:            ManualBoth,
		Balance:         Independent,
		Weights:         DefaultWeights(),
		ReactionAmount:  1,
		ExponentialBase: DefaultExponentialBase,
	}
}

// ParameterState is one parameter's three layers for a tick. The final value is derived from it.
type ParameterState struct {
	Base               float64
	ChoreographyOffset float64
	ReactionOffset     float64
	// Gesture, when set, replaces the blended value.
	Gesture *float64
}

// Final blends the layers under s.
func (p ParameterState) Final(s Settings) float64 {
	if p.Gesture != nil {
		return *p.Gesture
	}
	w := s.Weights
	if s.Balance == Normalized {
		w = w.Normalized()
	}
	return p.Base*w.Manual + p.ChoreographyOffset*w.Choreography + p.ReactionOffset*w.Reaction
}

// Composite is the compositor's output for one tick.
type Composite struct {
	States map[string]ParameterState
	Values map[string]float64
}

// Compositor owns base values, routings and gesture overrides, and is the only writer of reaction offsets.
// It is not safe for concurrent use.
type Compositor struct {
	log      logrus.FieldLogger
	settings Settings
	profiles map[string]profile.Profile

	base     map[string]float64
	preset   map[string]float64
	routings []Routing
	smoothed []float64
	gestures map[string]float64
}

// New creates a compositor whose base values start at the profile defaults.
func New(settings Settings, profiles map[string]profile.Profile, log logrus.FieldLogger) *Compositor {
	if settings.ExponentialBase <= 0 {
		settings.ExponentialBase = DefaultExponentialBase
	}
	c := &Compositor{
		log:      log,
		settings: settings,
		profiles: profiles,
		base:     make(map[string]float64, len(profiles)),
		preset:   make(map[string]float64),
		gestures: make(map[string]float64),
	}
	for name, p := range profiles {
		c.base[name] = p.Default
	}
	return c
}

// Settings returns the current blend settings.
func (c *Compositor) Settings() Settings {
	return c.settings
}

// SetSettings replaces the blend settings.
func (c *Compositor) SetSettings(s Settings) {
	if s.ExponentialBase <= 0 {
		s.ExponentialBase = DefaultExponentialBase
	}
	c.settings = s
}

// SetMode changes the control mode.
func (c *Compositor) SetMode(m ControlMode) {
	if m != c.settings.Mode {
		c.log.WithFields(logrus.Fields{"from": c.settings.Mode, "mode": m}).Info("Control mode changed")
	}
	c.settings.Mode = m
}

// SetBalance changes the balance mode.
func (c *Compositor) SetBalance(b BalanceMode) {
	c.settings.Balance = b
}

// SetWeights changes the layer weights.
func (c *Compositor) SetWeights(w Weights) {
	c.settings.Weights = w
}

// SetReactionAmount changes the global scale applied to every routing.
func (c *Compositor) SetReactionAmount(v float64) {
	c.settings.ReactionAmount = v
}

// Parameters lists the known parameters in sorted order.
func (c *Compositor) Parameters() []string {
	names := maps.Keys(c.profiles)
	slices.Sort(names)
	return names
}

// SetBase sets a parameter's user value, clamped to its profile range.
func (c *Compositor) SetBase(param string, v float64) error {
	p, ok := c.profiles[param]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, param)
	}
	c.base[param] = scale.Clamp(v, p.Min, p.Max)
	return nil
}

// Base returns a parameter's user value.
func (c *Compositor) Base(param string) float64 {
	return c.base[param]
}

// SetPreset sets the base values used in FullAuto. Parameters missing from values use their profile default.
func (c *Compositor) SetPreset(values map[string]float64) error {
	preset := make(map[string]float64, len(values))
	for param, v := range values {
		p, ok := c.profiles[param]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownParameter, param)
		}
		preset[param] = scale.Clamp(v, p.Min, p.Max)
	}
	c.preset = preset
	return nil
}

// SetRoutings validates and installs a routing table. Smoothing state restarts from zero.
func (c *Compositor) SetRoutings(routings []Routing) error {
	var errs []error
	for _, r := range routings {
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	c.routings = append([]Routing(nil), routings...)
	c.smoothed = make([]float64, len(routings))
	return nil
}

// Routings returns a copy of the routing table.
func (c *Compositor) Routings() []Routing {
	return append([]Routing(nil), c.routings...)
}

// SetGesture installs or clears a direct override of a parameter's value.
func (c *Compositor) SetGesture(param string, value float64, active bool) error {
	if _, ok := c.profiles[param]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, param)
	}
	if active {
		c.gestures[param] = value
	} else {
		delete(c.gestures, param)
	}
	return nil
}

// ClearGestures releases every override.
func (c *Compositor) ClearGestures() {
	c.gestures = make(map[string]float64)
}

// Reactions evaluates the routing table against frame and advances each routing's smoothing state.
func (c *Compositor) Reactions(frame audio.Frame) map[string]float64 {
	out := make(map[string]float64)
	for i, r := range c.routings {
		raw := frame.Band(r.Source)
		c.smoothed[i] = audio.Smooth(c.smoothed[i], raw, r.Smoothing)
		out[r.Target] += r.contribution(c.smoothed[i], c.settings.ReactionAmount, c.settings.ExponentialBase)
	}
	return out
}

// Compose computes reaction offsets for frame and blends them with choreography under the current settings.
func (c *Compositor) Compose(frame audio.Frame, choreography map[string]float64) Composite {
	reactions := c.Reactions(frame)
	mode := c.settings.Mode

	names := make(map[string]struct{}, len(c.base))
	for name := range c.base {
		names[name] = struct{}{}
	}
	for name := range choreography {
		names[name] = struct{}{}
	}
	for name := range reactions {
		names[name] = struct{}{}
	}

	out := Composite{
		States: make(map[string]ParameterState, len(names)),
		Values: make(map[string]float64, len(names)),
	}
	for name := range names {
		st := ParameterState{Base: c.baseFor(name)}
		if mode.Choreography() {
			st.ChoreographyOffset = choreography[name]
		}
		if mode.Reactions() {
			st.ReactionOffset = reactions[name]
		}
		if g, ok := c.gestures[name]; ok {
			g := g
			st.Gesture = &g
		}
		out.States[name] = st
		out.Values[name] = st.Final(c.settings)
	}
	return out
}

func (c *Compositor) baseFor(name string) float64 {
	if c.settings.Mode == FullAuto {
		if v, ok := c.preset[name]; ok {
			return v
		}
		return c.profiles[name].Default
	}
	return c.base[name]
}
