package choreography

import (
	"fmt"
	"time"

	"github.com/robmorgan/hypertone/audio"
	"github.com/robmorgan/hypertone/profile"
	"github.com/robmorgan/hypertone/rhythm"
	"github.com/robmorgan/hypertone/rotation"
	"github.com/sirupsen/logrus"
)

// Options tune the orchestrator. Zero values take defaults.
type Options struct {
	TrendDeadBand float64 `yaml:"trend_dead_band"`
	MomentumDecay float64 `yaml:"momentum_decay"`
}

// DefaultOptions returns the default orchestrator options.
func DefaultOptions() Options {
	return Options{
		TrendDeadBand: DefaultTrendDeadBand,
		MomentumDecay: rotation.DefaultMomentumDecay,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TrendDeadBand <= 0 {
		o.TrendDeadBand = d.TrendDeadBand
	}
	if o.MomentumDecay <= 0 || o.MomentumDecay > 1 {
		o.MomentumDecay = d.MomentumDecay
	}
	return o
}

// LiveValues returns the value a parameter currently shows, used to resolve "current" endpoints.
type LiveValues func(param string) float64

// Instance is a running sequence. It is active over [StartTime, StartTime+Duration).
type Instance struct {
	Sequence  *Sequence
	StartTime time.Time
}

// Elapsed returns the time since the instance started.
func (i *Instance) Elapsed(now time.Time) time.Duration {
	return now.Sub(i.StartTime)
}

// ActiveAt reports whether now falls within the instance's lifetime.
func (i *Instance) ActiveAt(now time.Time) bool {
	e := i.Elapsed(now)
	return e >= 0 && e < i.Sequence.Duration
}

// ActiveSequence describes a running instance for callers outside the tick.
type ActiveSequence struct {
	Name     string
	Elapsed  time.Duration
	Duration time.Duration
	Stage    int
}

// Result is what one orchestrator tick produces.
type Result struct {
	// Offsets holds the choreography offset of every parameter a stage or the rotation pattern drove.
	Offsets  map[string]float64
	Beat     rhythm.Snapshot
	Rotation rotation.Angles
	Started  []string
	Finished []string
}

// Orchestrator advances authored sequences and the rotation pattern once per tick. It is the only writer of
// choreography offsets and of Memory, and is not safe for concurrent use.
type Orchestrator struct {
	opts     Options
	log      logrus.FieldLogger
	patterns *rotation.Library
	beats    *rhythm.Tracker

	sequences map[string]*Sequence
	order     []string
	active    []*Instance

	memory   Memory
	start    time.Time
	lastTick time.Time
	running  bool
}

// NewOrchestrator creates an orchestrator driving the given pattern library.
func NewOrchestrator(opts Options, patterns *rotation.Library, log logrus.FieldLogger) *Orchestrator {
	return &Orchestrator{
		opts:      opts.withDefaults(),
		log:       log,
		patterns:  patterns,
		beats:     rhythm.NewTracker(time.Time{}, audio.DefaultBPM),
		sequences: make(map[string]*Sequence),
	}
}

// Patterns returns the rotation pattern library.
func (o *Orchestrator) Patterns() *rotation.Library {
	return o.patterns
}

// SetPattern selects the active rotation pattern.
func (o *Orchestrator) SetPattern(name string) error {
	return o.patterns.SetActive(name)
}

// OnDownbeat registers a hook fired when a new beat with beat%4 == 0 starts.
func (o *Orchestrator) OnDownbeat(h rhythm.Hook) {
	o.beats.OnDownbeat(h)
}

// OnBackbeat registers a hook fired when a new beat with beat%4 == 2 starts.
func (o *Orchestrator) OnBackbeat(h rhythm.Hook) {
	o.beats.OnBackbeat(h)
}

// Define adds or replaces sequences after validating all of them. On error nothing changes.
func (o *Orchestrator) Define(seqs ...Sequence) error {
	if err := validateAll(seqs); err != nil {
		return err
	}
	for i := range seqs {
		seq := seqs[i]
		if _, ok := o.sequences[seq.Name]; !ok {
			o.order = append(o.order, seq.Name)
		}
		o.sequences[seq.Name] = &seq
	}
	return nil
}

// Replace swaps the whole sequence set. Running instances of sequences that disappear are dropped; instances of
// redefined sequences finish with the definition they started with.
func (o *Orchestrator) Replace(seqs []Sequence) error {
	if err := validateAll(seqs); err != nil {
		return err
	}
	o.sequences = make(map[string]*Sequence, len(seqs))
	o.order = o.order[:0]
	for i := range seqs {
		seq := seqs[i]
		o.sequences[seq.Name] = &seq
		o.order = append(o.order, seq.Name)
	}

	kept := o.active[:0]
	for _, inst := range o.active {
		if _, ok := o.sequences[inst.Sequence.Name]; ok {
			kept = append(kept, inst)
		}
	}
	o.active = kept
	return nil
}

// Sequences returns the defined sequence names in definition order.
func (o *Orchestrator) Sequences() []string {
	return append([]string(nil), o.order...)
}

// StartSequence starts name at now. Starting a sequence that is already running does nothing.
func (o *Orchestrator) StartSequence(name string, now time.Time) error {
	seq, ok := o.sequences[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSequence, name)
	}
	if o.isActive(name) {
		return nil
	}
	o.active = append(o.active, &Instance{Sequence: seq, StartTime: now})
	o.log.WithField("sequence", name).Info("Sequence started")
	return nil
}

// StopSequence drops the running instance of name, if any.
func (o *Orchestrator) StopSequence(name string) error {
	if _, ok := o.sequences[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSequence, name)
	}
	kept := o.active[:0]
	for _, inst := range o.active {
		if inst.Sequence.Name != name {
			kept = append(kept, inst)
		}
	}
	o.active = kept
	return nil
}

// StopAll discards every running instance and re-anchors the beat clock on the next tick.
// Rotation pattern state is left alone.
func (o *Orchestrator) StopAll() {
	o.active = nil
	o.running = false
}

// Active describes the running instances as of now.
func (o *Orchestrator) Active(now time.Time) []ActiveSequence {
	out := make([]ActiveSequence, 0, len(o.active))
	for _, inst := range o.active {
		stage := -1
		elapsed := inst.Elapsed(now)
		for i, st := range inst.Sequence.Stages {
			if st.Contains(elapsed) {
				stage = i
				break
			}
		}
		out = append(out, ActiveSequence{
			Name:     inst.Sequence.Name,
			Elapsed:  elapsed,
			Duration: inst.Sequence.Duration,
			Stage:    stage,
		})
	}
	return out
}

// IsActive reports whether an instance of name is running.
func (o *Orchestrator) IsActive(name string) bool {
	return o.isActive(name)
}

func (o *Orchestrator) isActive(name string) bool {
	for _, inst := range o.active {
		if inst.Sequence.Name == name {
			return true
		}
	}
	return false
}

// Memory returns a copy of the current memory.
func (o *Orchestrator) Memory() Memory {
	return o.memory.Clone()
}

// Tick runs beat tracking, the memory update, trigger evaluation, instance advancement and the rotation pattern,
// in that order, for the frame at now.
func (o *Orchestrator) Tick(frame audio.Frame, now time.Time, live LiveValues) Result {
	if !o.running {
		o.beats.Reset(now)
		o.start = now
		o.lastTick = now
		o.running = true
	}

	res := Result{Offsets: make(map[string]float64)}
	res.Beat = o.beats.Update(now, frame.BPM)

	o.memory.update(frame, now, o.opts.TrendDeadBand, o.opts.MomentumDecay)

	vars := o.memory.vars(frame, now)
	for _, name := range o.order {
		if o.isActive(name) {
			continue
		}
		seq := o.sequences[name]
		if seq.Trigger == nil || !seq.Trigger.Evaluate(vars) {
			continue
		}
		o.active = append(o.active, &Instance{Sequence: seq, StartTime: now})
		res.Started = append(res.Started, name)
		o.log.WithFields(logrus.Fields{"sequence": name, "trigger": seq.Trigger.String()}).Debug("Sequence triggered")
	}

	kept := o.active[:0]
	for _, inst := range o.active {
		elapsed := inst.Elapsed(now)
		if elapsed >= inst.Sequence.Duration {
			res.Finished = append(res.Finished, inst.Sequence.Name)
			continue
		}
		kept = append(kept, inst)

		stage, progress, ok := inst.Sequence.StageAt(elapsed)
		if !ok {
			continue
		}
		for _, param := range stage.sortedParams() {
			var current float64
			if live != nil {
				current = live(param)
			}
			res.Offsets[param] = stage.Changes[param].Value(progress, current)
		}
	}
	o.active = kept

	var chaos float64
	if live != nil {
		chaos = live(profile.ParamChaos)
	}
	res.Rotation = o.patterns.Update(rotation.Inputs{
		TimeMs:        msSince(o.start, now),
		DeltaMs:       msSince(o.lastTick, now),
		BeatIndex:     res.Beat.BeatIndex(),
		BeatPhase:     res.Beat.GetBeatPhase(),
		BPM:           frame.BPM,
		RMS:           frame.RMS,
		Bass:          frame.Bass(),
		CentroidHz:    frame.CentroidHz(),
		OnsetDetected: frame.Onset.Detected,
		OnsetStrength: frame.Onset.Strength,
		Chaos:         chaos,
	})
	for param, v := range map[string]float64{
		profile.ParamRot4dXW: res.Rotation.XW,
		profile.ParamRot4dYW: res.Rotation.YW,
		profile.ParamRot4dZW: res.Rotation.ZW,
	} {
		if _, overridden := res.Offsets[param]; !overridden {
			res.Offsets[param] = v
		}
	}

	o.lastTick = now
	return res
}

func msSince(from, to time.Time) float64 {
	return float64(to.Sub(from)) / float64(time.Millisecond)
}
