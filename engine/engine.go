package engine

import (
	"math/rand"
	"time"

	"github.com/robmorgan/hypertone/audio"
	"github.com/robmorgan/hypertone/choreography"
	"github.com/robmorgan/hypertone/compositor"
	"github.com/robmorgan/hypertone/profile"
	"github.com/robmorgan/hypertone/rhythm"
	"github.com/robmorgan/hypertone/rotation"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Options configure every component an Engine owns.
type Options struct {
	Extractor    audio.Options
	Orchestrator choreography.Options
	Compositor   compositor.Settings
	Routings     []compositor.Routing
	Profiles     map[string]profile.Profile
	// Base holds initial user values and Preset the base values used in full-auto mode.
	Base    map[string]float64
	Preset  map[string]float64
	Pattern string
	// Rand drives the randomized rotation patterns. A time-seeded source is used when nil.
	Rand *rand.Rand
}

// DefaultOptions returns the default settings of every component.
func DefaultOptions() Options {
	return Options{
		Extractor:    audio.DefaultOptions(),
		Orchestrator: choreography.DefaultOptions(),
		Compositor:   compositor.DefaultSettings(),
		Profiles:     profile.Defaults(),
		Pattern:      rotation.Smooth,
	}
}

// Snapshot is everything one tick produced.
type Snapshot struct {
	Time     time.Time
	Frame    audio.Frame
	Beat     rhythm.Snapshot
	States   map[string]compositor.ParameterState
	Values   map[string]float64
	Memory   choreography.Memory
	Active   []choreography.ActiveSequence
	Pattern  string
	Mode     compositor.ControlMode
	Started  []string
	Finished []string
}

// Parameters returns the snapshot's parameter names in sorted order.
func (s Snapshot) Parameters() []string {
	names := maps.Keys(s.Values)
	slices.Sort(names)
	return names
}

// Engine runs extraction, orchestration and composition as one tick. It holds all mutable state, so several
// engines can run side by side. It is not safe for concurrent use; see Runner.
type Engine struct {
	log          logrus.FieldLogger
	extractor    *audio.Extractor
	orchestrator *choreography.Orchestrator
	compositor   *compositor.Compositor

	running bool
	last    Snapshot
}

// New wires an engine from opts.
func New(opts Options, log logrus.FieldLogger) (*Engine, error) {
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	profiles := opts.Profiles
	if len(profiles) == 0 {
		profiles = profile.Defaults()
	}

	orchOpts := opts.Orchestrator
	patterns := rotation.NewLibrary(rnd, orchOpts.MomentumDecay, log)
	if opts.Pattern != "" {
		if err := patterns.SetActive(opts.Pattern); err != nil {
			return nil, err
		}
	}

	comp := compositor.New(opts.Compositor, profiles, log)
	if err := comp.SetRoutings(opts.Routings); err != nil {
		return nil, err
	}
	for param, v := range opts.Base {
		if err := comp.SetBase(param, v); err != nil {
			return nil, err
		}
	}
	if err := comp.SetPreset(opts.Preset); err != nil {
		return nil, err
	}

	return &Engine{
		log:          log,
		extractor:    audio.NewExtractor(opts.Extractor, log),
		orchestrator: choreography.NewOrchestrator(orchOpts, patterns, log),
		compositor:   comp,
	}, nil
}

// Extractor returns the feature extractor.
func (e *Engine) Extractor() *audio.Extractor {
	return e.extractor
}

// Orchestrator returns the timeline orchestrator.
func (e *Engine) Orchestrator() *choreography.Orchestrator {
	return e.orchestrator
}

// Compositor returns the parameter compositor.
func (e *Engine) Compositor() *compositor.Compositor {
	return e.compositor
}

// Start enables ticking.
func (e *Engine) Start() {
	if !e.running {
		e.log.Info("Engine started")
	}
	e.running = true
}

// Stop halts ticking and discards running sequence instances. Rotation pattern state is kept.
func (e *Engine) Stop() {
	if e.running {
		e.log.Info("Engine stopped")
	}
	e.running = false
	e.orchestrator.StopAll()
}

// Running reports whether the engine ticks.
func (e *Engine) Running() bool {
	return e.running
}

// Last returns the most recent snapshot.
func (e *Engine) Last() Snapshot {
	return e.last
}

// Tick analyses in and runs one tick at now. A stopped engine returns its last snapshot unchanged.
func (e *Engine) Tick(in audio.Input, now time.Time) Snapshot {
	if !e.running {
		return e.last
	}
	return e.TickFrame(e.extractor.Process(in, now), now)
}

// TickFrame runs one tick on an already extracted frame.
func (e *Engine) TickFrame(frame audio.Frame, now time.Time) Snapshot {
	if !e.running {
		return e.last
	}

	res := e.orchestrator.Tick(frame, now, e.live)
	out := e.compositor.Compose(frame, res.Offsets)

	e.last = Snapshot{
		Time:     now,
		Frame:    frame,
		Beat:     res.Beat,
		States:   out.States,
		Values:   out.Values,
		Memory:   e.orchestrator.Memory(),
		Active:   e.orchestrator.Active(now),
		Pattern:  e.orchestrator.Patterns().Active(),
		Mode:     e.compositor.Settings().Mode,
		Started:  res.Started,
		Finished: res.Finished,
	}

	for _, name := range res.Started {
		e.log.WithFields(logrus.Fields{"sequence": name, "bpm": frame.BPM}).Info("Sequence triggered")
	}
	for _, name := range res.Finished {
		e.log.WithField("sequence", name).Debug("Sequence finished")
	}
	return e.last
}

// live reads a parameter's value from the previous tick, falling back to its base value.
func (e *Engine) live(param string) float64 {
	if v, ok := e.last.Values[param]; ok {
		return v
	}
	return e.compositor.Base(param)
}
