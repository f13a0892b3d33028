package output

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robmorgan/hypertone/config"
	"github.com/robmorgan/hypertone/engine"
	"github.com/robmorgan/hypertone/engine/scale"
	"github.com/robmorgan/hypertone/profile"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// DMXUniverseSize is the number of channels in one universe.
const DMXUniverseSize = 512

// DMXState holds the DMX512 values for each channel.
type DMXState struct {
	universes map[int][]byte
	lock      sync.Mutex
}

// NewDMXState creates an empty state.
func NewDMXState() *DMXState {
	return &DMXState{universes: make(map[int][]byte)}
}

type dmxOperation struct {
	universe, channel int
	value             byte
}

func (s *DMXState) set(ops ...dmxOperation) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, op := range ops {
		if op.channel < 1 || op.channel > DMXUniverseSize {
			return fmt.Errorf("dmx channel (%d) not in range, op=%v", op.channel, op)
		}
		s.initializeUniverse(op.universe)
		s.universes[op.universe][op.channel-1] = op.value
	}
	return nil
}

func (s *DMXState) initializeUniverse(universe int) {
	if s.universes[universe] == nil {
		s.universes[universe] = make([]byte, DMXUniverseSize)
	}
}

// Value returns the value of a 1-based channel.
func (s *DMXState) Value(universe, channel int) byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	u := s.universes[universe]
	if u == nil || channel < 1 || channel > len(u) {
		return 0
	}
	return u[channel-1]
}

// Snapshot copies every universe.
func (s *DMXState) Snapshot() map[int][]byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make(map[int][]byte, len(s.universes))
	for k, v := range s.universes {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

// DMXSink writes patched parameter values into a DMXState, scaling each profile range onto 0-255.
type DMXSink struct {
	state    *DMXState
	patch    []config.PatchedParameter
	profiles map[string]profile.Profile
}

// NewDMXSink creates a sink writing into state.
func NewDMXSink(state *DMXState, patch []config.PatchedParameter, profiles map[string]profile.Profile) *DMXSink {
	return &DMXSink{state: state, patch: patch, profiles: profiles}
}

func (s *DMXSink) Name() string {
	return "dmx"
}

func (s *DMXSink) Send(snap engine.Snapshot) error {
	ops := make([]dmxOperation, 0, len(s.patch))
	for _, p := range s.patch {
		v, ok := snap.Values[p.Parameter]
		if !ok {
			continue
		}
		ops = append(ops, dmxOperation{
			universe: p.Universe,
			channel:  p.Address,
			value:    s.toByte(p.Parameter, v),
		})
	}
	return s.state.set(ops...)
}

func (s *DMXSink) toByte(param string, v float64) byte {
	prof, ok := s.profiles[param]
	if !ok {
		prof = profile.Profile{Min: 0, Max: 1}
	}
	return byte(scale.Linear(prof.Min, prof.Max, 0, 255)(v) + 0.5)
}

// OLAClient is the interface for communicating with OLA.
type OLAClient interface {
	SendDmx(universe int, values []byte) (status bool, err error)
	Close()
}

// SendDMXWorker sends OLA the current state of every universe each tick.
func SendDMXWorker(ctx context.Context, client OLAClient, clk clock.Clock, tick time.Duration, state *DMXState,
	log logrus.FieldLogger, wg *sync.WaitGroup) error {
	defer wg.Done()
	defer client.Close()

	t := clk.NewTimer(tick)
	defer t.Stop()
	log.Infof("DMX worker started, interval=%v", tick)

	for {
		select {
		case <-ctx.Done():
			log.Info("DMX worker shutdown")
			return ctx.Err()
		case <-t.C():
			for universe, values := range state.Snapshot() {
				if _, err := client.SendDmx(universe, values); err != nil {
					log.WithField("universe", universe).Warnf("SendDmx failed: %v", err)
				}
			}
			t.Reset(tick)
		}
	}
}
