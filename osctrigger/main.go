package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hypebeast/go-osc/osc"
)

// osctrigger sends one control message to a running hypertone, e.g.
//
//	osctrigger -gesture chaos=0.8
//	osctrigger -release chaos
//	osctrigger -start bass_drop
//	osctrigger -pattern onset_snap
func main() {
	host := flag.String("host", "127.0.0.1", "hypertone control host")
	port := flag.Int("port", 9001, "hypertone control port")
	prefix := flag.String("prefix", "/hypertone", "OSC address prefix")
	gesture := flag.String("gesture", "", "hold a parameter at a value: name=value")
	release := flag.String("release", "", "release a held parameter")
	base := flag.String("base", "", "set a parameter's base value: name=value")
	start := flag.String("start", "", "start a sequence by name")
	stop := flag.String("stop", "", "stop a sequence by name, or all with '*'")
	pattern := flag.String("pattern", "", "select the rotation pattern")
	mode := flag.String("mode", "", "select the control mode")
	flag.Parse()

	msg, err := buildMessage(*prefix, *gesture, *release, *base, *start, *stop, *pattern, *mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(1)
	}

	client := osc.NewClient(*host, *port)
	fmt.Println("Sending:", msg)
	if err := client.Send(msg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildMessage(prefix, gesture, release, base, start, stop, pattern, mode string) (*osc.Message, error) {
	prefix = strings.TrimSuffix(prefix, "/")
	switch {
	case gesture != "":
		name, value, err := parseAssignment(gesture)
		if err != nil {
			return nil, err
		}
		return osc.NewMessage(prefix+"/gesture/"+name, value, true), nil
	case release != "":
		return osc.NewMessage(prefix+"/gesture/"+release, float32(0), false), nil
	case base != "":
		name, value, err := parseAssignment(base)
		if err != nil {
			return nil, err
		}
		return osc.NewMessage(prefix+"/base/"+name, value), nil
	case start != "":
		return osc.NewMessage(prefix+"/sequence/start", start), nil
	case stop == "*":
		return osc.NewMessage(prefix + "/sequence/stop"), nil
	case stop != "":
		return osc.NewMessage(prefix+"/sequence/stop", stop), nil
	case pattern != "":
		return osc.NewMessage(prefix+"/pattern", pattern), nil
	case mode != "":
		return osc.NewMessage(prefix+"/mode", mode), nil
	}
	return nil, fmt.Errorf("nothing to send")
}

func parseAssignment(s string) (string, float32, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", 0, fmt.Errorf("expected name=value, got %q", s)
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", name, err)
	}
	return name, float32(v), nil
}
