package output

import (
	"fmt"
	"strings"

	"github.com/hypebeast/go-osc/osc"
	"github.com/robmorgan/hypertone/engine"
)

// OSCClient is the part of *osc.Client the sink uses.
type OSCClient interface {
	Send(packet osc.Packet) error
}

// OSCSink sends every tick's final parameter values as one OSC bundle:
// <prefix>/param/<name> float, plus <prefix>/bpm, <prefix>/beat and <prefix>/pattern.
type OSCSink struct {
	client OSCClient
	prefix string
}

// NewOSCSink creates a sink sending to host:port.
func NewOSCSink(host string, port int, prefix string) *OSCSink {
	return NewOSCSinkWithClient(osc.NewClient(host, port), prefix)
}

// NewOSCSinkWithClient creates a sink sending through client.
func NewOSCSinkWithClient(client OSCClient, prefix string) *OSCSink {
	return &OSCSink{client: client, prefix: strings.TrimSuffix(prefix, "/")}
}

func (s *OSCSink) Name() string {
	return "osc"
}

func (s *OSCSink) Send(snap engine.Snapshot) error {
	bundle := osc.NewBundle(snap.Time)
	for _, name := range snap.Parameters() {
		msg := osc.NewMessage(s.prefix+"/param/"+name, float32(snap.Values[name]))
		if err := bundle.Append(msg); err != nil {
			return err
		}
	}

	extras := []*osc.Message{
		osc.NewMessage(s.prefix+"/bpm", float32(snap.Frame.BPM)),
		osc.NewMessage(s.prefix+"/beat", int32(snap.Beat.BeatIndex()), float32(snap.Beat.GetBeatPhase())),
		osc.NewMessage(s.prefix+"/pattern", snap.Pattern),
	}
	for _, msg := range extras {
		if err := bundle.Append(msg); err != nil {
			return err
		}
	}

	if err := s.client.Send(bundle); err != nil {
		return fmt.Errorf("sending osc bundle: %w", err)
	}
	return nil
}
