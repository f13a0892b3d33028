package engine

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/robmorgan/hypertone/audio"
	"github.com/robmorgan/hypertone/choreography"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// DefaultFPS is the default tick rate of a Runner.
const DefaultFPS = 40

// Sink consumes the snapshot of every tick.
type Sink interface {
	Name() string
	Send(s Snapshot) error
}

// Command mutates the engine between ticks.
type Command func(e *Engine)

// Runner drives an Engine at a fixed rate from a single goroutine. Everything else talks to the engine by
// sending it Commands or library updates, so the engine itself needs no locks.
type Runner struct {
	engine *Engine
	source audio.Source
	sinks  []Sink
	clock  clock.WithTicker
	period time.Duration
	log    logrus.FieldLogger

	commands chan Command
	library  <-chan []choreography.Sequence

	sourceDone bool
}

// NewRunner creates a runner ticking e at fps. A nil source yields silent frames.
func NewRunner(e *Engine, source audio.Source, clk clock.WithTicker, fps int, log logrus.FieldLogger, sinks ...Sink) *Runner {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Runner{
		engine:   e,
		source:   source,
		sinks:    sinks,
		clock:    clk,
		period:   time.Second / time.Duration(fps),
		log:      log,
		commands: make(chan Command, 64),
	}
}

// Period returns the time between ticks.
func (r *Runner) Period() time.Duration {
	return r.period
}

// WatchLibrary makes the runner install every sequence set received on updates.
func (r *Runner) WatchLibrary(updates <-chan []choreography.Sequence) {
	r.library = updates
}

// Do queues cmd to run on the engine before the next tick. It blocks only if the queue is full.
func (r *Runner) Do(ctx context.Context, cmd Command) error {
	select {
	case r.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the engine and ticks it until ctx is cancelled, then stops it.
func (r *Runner) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := r.clock.NewTicker(r.period)
	defer ticker.Stop()

	r.engine.Start()
	defer r.engine.Stop()
	r.log.WithField("period", r.period).Info("Runner started")

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Runner shutdown")
			return
		case cmd := <-r.commands:
			cmd(r.engine)
		case seqs := <-r.library:
			if err := r.engine.Orchestrator().Replace(seqs); err != nil {
				r.log.Errorf("Sequence library rejected, keeping previous sequences: %v", err)
				continue
			}
			r.log.Infof("Installed %d sequences", len(seqs))
		case now := <-ticker.C():
			r.Step(now)
		}
	}
}

// Step runs one tick at now and hands the snapshot to every sink. Sink errors are logged and never stop ticking.
func (r *Runner) Step(now time.Time) Snapshot {
	snap := r.engine.TickFrame(r.frame(now), now)
	for _, sink := range r.sinks {
		if err := sink.Send(snap); err != nil {
			r.log.WithField("sink", sink.Name()).Warnf("Sink failed: %v", err)
		}
	}
	return snap
}

func (r *Runner) frame(now time.Time) audio.Frame {
	ex := r.engine.Extractor()
	if r.source == nil || r.sourceDone {
		return ex.Silent(now)
	}

	in, err := r.source.Read()
	if errors.Is(err, io.EOF) {
		r.log.Info("Audio source exhausted, continuing with silence")
		r.sourceDone = true
		return ex.Silent(now)
	}
	if err != nil {
		r.log.Debugf("Audio source read failed: %v", err)
		return ex.Silent(now)
	}
	return ex.Process(in, now)
}
