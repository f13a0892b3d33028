package output

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/hypebeast/go-osc/osc"
	"github.com/robmorgan/hypertone/compositor"
	"github.com/robmorgan/hypertone/engine"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// Submit hands a command to whatever owns the engine.
type Submit func(cmd engine.Command)

// ControlListener turns incoming OSC messages into engine commands:
//
//	<prefix>/gesture/<param> value [active]
//	<prefix>/sequence/start name
//	<prefix>/sequence/stop [name]
//	<prefix>/pattern name
//	<prefix>/mode name
//	<prefix>/base/<param> value
type ControlListener struct {
	addr   string
	prefix string
	submit Submit
	clock  clock.PassiveClock
	log    logrus.FieldLogger
}

// NewControlListener creates a listener for addr. Messages outside prefix are ignored.
func NewControlListener(addr, prefix string, submit Submit, clk clock.PassiveClock, log logrus.FieldLogger) *ControlListener {
	return &ControlListener{
		addr:   addr,
		prefix: strings.TrimSuffix(prefix, "/"),
		submit: submit,
		clock:  clk,
		log:    log.WithField("listen", addr),
	}
}

// Run serves until ctx is cancelled.
func (l *ControlListener) Run(ctx context.Context, wg *sync.WaitGroup) error {
	defer wg.Done()

	conn, err := net.ListenPacket("udp", l.addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	l.log.Info("OSC control listener started")
	server := &osc.Server{Dispatcher: l}
	if err := server.Serve(conn); err != nil && ctx.Err() == nil {
		return err
	}
	l.log.Info("OSC control listener shutdown")
	return nil
}

// Dispatch implements osc.Dispatcher.
func (l *ControlListener) Dispatch(packet osc.Packet) {
	switch p := packet.(type) {
	case *osc.Message:
		l.handle(p)
	case *osc.Bundle:
		for _, m := range p.Messages {
			l.handle(m)
		}
		for _, b := range p.Bundles {
			l.Dispatch(b)
		}
	}
}

func (l *ControlListener) handle(msg *osc.Message) {
	if !strings.HasPrefix(msg.Address, l.prefix+"/") {
		return
	}
	parts := strings.Split(strings.TrimPrefix(msg.Address, l.prefix+"/"), "/")
	log := l.log.WithField("address", msg.Address)

	cmd, err := l.command(parts, msg.Arguments)
	if err != nil {
		log.Warnf("Ignoring OSC message: %v", err)
		return
	}
	l.submit(func(e *engine.Engine) {
		if err := cmd(e); err != nil {
			log.Warnf("OSC command failed: %v", err)
		}
	})
}

func (l *ControlListener) command(parts []string, args []interface{}) (func(e *engine.Engine) error, error) {
	switch {
	case len(parts) == 2 && parts[0] == "gesture":
		param := parts[1]
		value, err := floatArg(args, 0)
		if err != nil {
			return nil, err
		}
		active := true
		if len(args) > 1 {
			if active, err = boolArg(args, 1); err != nil {
				return nil, err
			}
		}
		return func(e *engine.Engine) error {
			return e.Compositor().SetGesture(param, value, active)
		}, nil

	case len(parts) == 2 && parts[0] == "base":
		param := parts[1]
		value, err := floatArg(args, 0)
		if err != nil {
			return nil, err
		}
		return func(e *engine.Engine) error {
			return e.Compositor().SetBase(param, value)
		}, nil

	case len(parts) == 2 && parts[0] == "sequence" && parts[1] == "start":
		name, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		now := l.clock.Now()
		return func(e *engine.Engine) error {
			return e.Orchestrator().StartSequence(name, now)
		}, nil

	case len(parts) == 2 && parts[0] == "sequence" && parts[1] == "stop":
		if len(args) == 0 {
			return func(e *engine.Engine) error {
				e.Orchestrator().StopAll()
				return nil
			}, nil
		}
		name, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return func(e *engine.Engine) error {
			return e.Orchestrator().StopSequence(name)
		}, nil

	case len(parts) == 1 && parts[0] == "pattern":
		name, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return func(e *engine.Engine) error {
			return e.Orchestrator().SetPattern(name)
		}, nil

	case len(parts) == 1 && parts[0] == "mode":
		name, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		mode, err := compositor.ParseControlMode(name)
		if err != nil {
			return nil, err
		}
		return func(e *engine.Engine) error {
			e.Compositor().SetMode(mode)
			return nil
		}, nil
	}
	return nil, fmt.Errorf("unknown address")
}

func floatArg(args []interface{}, i int) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i)
	}
	switch v := args[i].(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("argument %d: expected number, got %T", i, args[i])
}

func boolArg(args []interface{}, i int) (bool, error) {
	if b, ok := args[i].(bool); ok {
		return b, nil
	}
	f, err := floatArg(args, i)
	if err != nil {
		return false, err
	}
	return f != 0, nil
}

func stringArg(args []interface{}, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d", i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d: expected string, got %T", i, args[i])
	}
	return s, nil
}
