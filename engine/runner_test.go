package engine

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/robmorgan/hypertone/audio"
	"github.com/robmorgan/hypertone/choreography"
	"github.com/robmorgan/hypertone/profile"
	"github.com/robmorgan/hypertone/trigger"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"
)

type scriptedSource struct {
	reads []error
}

func (s *scriptedSource) Read() (audio.Input, error) {
	if len(s.reads) == 0 {
		return audio.Input{}, io.EOF
	}
	err := s.reads[0]
	s.reads = s.reads[1:]
	return audio.Input{}, err
}

type recordingSink struct {
	mu    sync.Mutex
	snaps []Snapshot
	err   error
	seen  chan struct{}
}

func newRecordingSink(err error) *recordingSink {
	return &recordingSink{err: err, seen: make(chan struct{}, 256)}
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Send(snap Snapshot) error {
	s.mu.Lock()
	s.snaps = append(s.snaps, snap)
	s.mu.Unlock()
	s.seen <- struct{}{}
	return s.err
}

func TestStepSurvivesSourceAndSinkFailures(t *testing.T) {
	t.Parallel()

	log, _ := test.NewNullLogger()
	e := newTestEngine(t, nil)
	source := &scriptedSource{reads: []error{errors.New("device unplugged")}}
	failing := newRecordingSink(errors.New("network down"))
	ok := newRecordingSink(nil)

	r := NewRunner(e, source, testclock.NewFakeClock(epoch), 0, log, failing, ok)
	assert.Equal(t, 25*time.Millisecond, r.Period())

	for i := 0; i < 3; i++ {
		snap := r.Step(epoch.Add(time.Duration(i) * r.Period()))
		assert.Equal(t, 0.0, snap.Frame.RMS)
		assert.Equal(t, 0.0, snap.Frame.Bass())
	}
	assert.Len(t, failing.snaps, 3)
	assert.Len(t, ok.snaps, 3)
	assert.True(t, r.sourceDone)
}

func TestRunTicksOnClockAndAppliesCommands(t *testing.T) {
	t.Parallel()

	log, _ := test.NewNullLogger()
	e := newTestEngine(t, nil)
	e.Stop()
	fc := testclock.NewFakeClock(epoch)
	sink := newRecordingSink(nil)
	library := make(chan []choreography.Sequence, 1)

	r := NewRunner(e, nil, fc, 40, log, sink)
	r.WatchLibrary(library)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go r.Run(ctx, wg)

	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)

	library <- []choreography.Sequence{{Name: "hold", Duration: time.Minute, Trigger: trigger.Always}}
	require.NoError(t, r.Do(ctx, func(e *Engine) {
		assert.NoError(t, e.Compositor().SetGesture(profile.ParamHue, 42, true))
	}))
	require.Eventually(t, func() bool {
		done := make(chan bool, 1)
		if err := r.Do(ctx, func(e *Engine) {
			done <- len(e.Orchestrator().Sequences()) == 1
		}); err != nil {
			return false
		}
		return <-done
	}, time.Second, time.Millisecond)

	fc.Step(r.Period())
	select {
	case <-sink.seen:
	case <-time.After(time.Second):
		t.Fatal("no tick delivered")
	}

	cancel()
	wg.Wait()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.snaps, 1)
	snap := sink.snaps[0]
	assert.Equal(t, 42.0, snap.Values[profile.ParamHue])
	assert.Equal(t, []string{"hold"}, snap.Started)
	assert.False(t, e.Running())
}
