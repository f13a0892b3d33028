package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nickysemenza/gola"
	"github.com/robmorgan/hypertone/config"
	"github.com/robmorgan/hypertone/engine/scale"
	"github.com/robmorgan/hypertone/profile"
)

// unidump reads a universe back from OLA and prints the parameter value each patched channel carries.
func main() {
	configFile := flag.String("config", "", "configuration file path (YAML)")
	ola := flag.String("ola", "", "OLA address, defaults to the configured one")
	universe := flag.Int("universe", 1, "universe to dump")
	flag.Parse()

	cfg := config.NewConfig()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}
	addr := cfg.DMX.OLA
	if *ola != "" {
		addr = *ola
	}

	client, err := gola.New(addr)
	if err != nil {
		log.Fatalf("could not create client: %v", err)
	}
	defer client.Close()

	if err := config.ValidatePatch(cfg.DMX.Patch, cfg.Profiles); err != nil {
		log.Fatalf("invalid patch: %v", err)
	}

	x, err := client.GetDmx(*universe)
	if err != nil {
		log.Printf("GetDmx: %d: %v", *universe, err)
		os.Exit(1)
	}

	for _, c := range decodeUniverse(x.Data, *universe, cfg.DMX.Patch, cfg.Profiles) {
		fmt.Printf("%3d  %-12s %3d  %8.3f\n", c.Address, c.Parameter, c.Raw, c.Value)
	}
}

type channelValue struct {
	config.PatchedParameter
	Raw   byte
	Value float64
}

// decodeUniverse maps the patched channels of one universe back onto their parameter ranges. Channels outside
// data are skipped.
func decodeUniverse(data []byte, universe int, patch []config.PatchedParameter,
	profiles map[string]profile.Profile) []channelValue {
	var out []channelValue
	for _, p := range patch {
		if p.Universe != universe || p.Address < 1 || p.Address > len(data) {
			continue
		}
		raw := data[p.Address-1]
		prof := profiles[p.Parameter]
		out = append(out, channelValue{
			PatchedParameter: p,
			Raw:              raw,
			Value:            scale.FromUnit(prof.Min, prof.Max)(float64(raw) / 255),
		})
	}
	return out
}
