package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	commonerrors "github.com/gruntwork-io/go-commons/errors"
	"github.com/robmorgan/hypertone/audio"
	"github.com/robmorgan/hypertone/choreography"
	"github.com/robmorgan/hypertone/compositor"
	"github.com/robmorgan/hypertone/engine"
	"github.com/robmorgan/hypertone/profile"
	"github.com/robmorgan/hypertone/rotation"
	"gopkg.in/yaml.v3"
)

// AudioConfig selects the audio source.
type AudioConfig struct {
	// File is a WAV file analysed in real time. Empty means no source, so every frame is silent.
	File       string `yaml:"file"`
	WindowSize int    `yaml:"window_size"`
	HopSize    int    `yaml:"hop_size"`
	Loop       bool   `yaml:"loop"`
}

// LibraryConfig locates the sequence library document.
type LibraryConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// OSCConfig configures the OSC parameter output and the OSC control input.
type OSCConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Prefix  string `yaml:"prefix"`
	// Listen is the UDP address control messages are received on. Empty disables the listener.
	Listen string `yaml:"listen"`
}

// DMXConfig configures DMX output through OLA.
type DMXConfig struct {
	Enabled  bool               `yaml:"enabled"`
	OLA      string             `yaml:"ola"`
	Interval time.Duration      `yaml:"interval"`
	Patch    []PatchedParameter `yaml:"patch"`
}

// Config represents options that configure the global behavior of the program.
type Config struct {
	LogLevel string `yaml:"log_level"`
	FPS      int    `yaml:"fps"`

	Extractor    audio.Options        `yaml:"extractor"`
	Orchestrator choreography.Options `yaml:"orchestrator"`
	Pattern      string               `yaml:"pattern"`
	Compositor   compositor.Settings  `yaml:"compositor"`
	Routings     []compositor.Routing `yaml:"routings"`

	// Profiles override the built-in parameter profiles field by field.
	Profiles map[string]profile.Profile `yaml:"profiles"`
	// Base holds initial user values; Preset holds the base values used in full-auto mode.
	Base   map[string]float64 `yaml:"base"`
	Preset map[string]float64 `yaml:"preset"`

	Audio   AudioConfig   `yaml:"audio"`
	Library LibraryConfig `yaml:"library"`
	OSC     OSCConfig     `yaml:"osc"`
	DMX     DMXConfig     `yaml:"dmx"`
	Monitor bool          `yaml:"monitor"`
}

// NewConfig creates a Config with reasonable defaults for real usage.
func NewConfig() *Config {
	return &Config{
		LogLevel:     "info",
		FPS:          engine.DefaultFPS,
		Extractor:    audio.DefaultOptions(),
		Orchestrator: choreography.DefaultOptions(),
		Pattern:      rotation.Smooth,
		Compositor:   compositor.DefaultSettings(),
		Routings:     DefaultRoutings(),
		Profiles:     profile.Defaults(),
		Audio: AudioConfig{
			WindowSize: 2048,
			HopSize:    1102,
			Loop:       true,
		},
		OSC: OSCConfig{
			Host:   "127.0.0.1",
			Port:   9000,
			Prefix: "/hypertone",
		},
		DMX: DMXConfig{
			OLA:      "localhost:9010",
			Interval: 40 * time.Millisecond,
			Patch:    DefaultPatch(),
		},
	}
}

// DefaultRoutings drives the core parameters from the most telling bands.
func DefaultRoutings() []compositor.Routing {
	return []compositor.Routing{
		{Target: profile.ParamIntensity, Source: audio.BandBass, Amount: 0.6, Curve: compositor.CurveExponential, Threshold: 0.1, Smoothing: 0.3},
		{Target: profile.ParamChaos, Source: audio.BandHighMid, Amount: 0.4, Curve: compositor.CurveLinear, Threshold: 0.2},
		{Target: profile.ParamGridDensity, Source: audio.BandMid, Amount: 2, Curve: compositor.CurveLogarithmic, Smoothing: 0.5},
		{Target: profile.ParamSaturation, Source: audio.BandPresence, Amount: 0.3, Curve: compositor.CurveLinear, Smoothing: 0.5},
	}
}

// Load reads the YAML document at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, commonerrors.WithStackTrace(err)
	}
	return Parse(data)
}

// Parse decodes a YAML document over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := NewConfig()
	overrides := cfg.Profiles
	cfg.Profiles = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, commonerrors.WithStackTrace(err)
	}
	cfg.Profiles = mergeProfiles(overrides, cfg.Profiles)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeProfiles lays overrides over base. Zero fields of an override keep the base value.
func mergeProfiles(base, overrides map[string]profile.Profile) map[string]profile.Profile {
	out := make(map[string]profile.Profile, len(base)+len(overrides))
	for name, p := range base {
		out[name] = p
	}
	for name, o := range overrides {
		p, ok := out[name]
		if !ok {
			p = profile.Profile{Name: name}
		}
		if o.Min != 0 || o.Max != 0 {
			p.Min, p.Max = o.Min, o.Max
		}
		if o.Default != 0 {
			p.Default = o.Default
		}
		out[name] = p
	}
	return out
}

// Validate checks ranges and references.
func (c *Config) Validate() error {
	var errs []error
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.Extractor.Smoothing < 0 || c.Extractor.Smoothing > 1 {
		errs = append(errs, fmt.Errorf("extractor smoothing %g outside [0,1]", c.Extractor.Smoothing))
	}
	if c.Extractor.OnsetThreshold < 0 || c.Extractor.OnsetThreshold > 1 {
		errs = append(errs, fmt.Errorf("onset threshold %g outside [0,1]", c.Extractor.OnsetThreshold))
	}
	if c.Orchestrator.MomentumDecay <= 0 || c.Orchestrator.MomentumDecay > 1 {
		errs = append(errs, fmt.Errorf("momentum decay %g outside (0,1]", c.Orchestrator.MomentumDecay))
	}
	if c.Compositor.ReactionAmount < 0 {
		errs = append(errs, fmt.Errorf("reaction amount %g is negative", c.Compositor.ReactionAmount))
	}
	for _, r := range c.Routings {
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
		} else if _, ok := c.Profiles[r.Target]; !ok {
			errs = append(errs, fmt.Errorf("routing targets unknown parameter %q", r.Target))
		}
	}
	for name, p := range c.Profiles {
		if p.Min > p.Max {
			errs = append(errs, fmt.Errorf("profile %s: min %g above max %g", name, p.Min, p.Max))
		}
	}
	for _, values := range []map[string]float64{c.Base, c.Preset} {
		for name := range values {
			if _, ok := c.Profiles[name]; !ok {
				errs = append(errs, fmt.Errorf("value for unknown parameter %q", name))
			}
		}
	}
	if c.Audio.File != "" && (c.Audio.WindowSize <= 0 || c.Audio.HopSize <= 0) {
		errs = append(errs, errors.New("audio window and hop sizes must be positive"))
	}
	if c.OSC.Enabled && (c.OSC.Port <= 0 || c.OSC.Port > 65535) {
		errs = append(errs, fmt.Errorf("osc port %d out of range", c.OSC.Port))
	}
	if c.DMX.Enabled {
		if err := ValidatePatch(c.DMX.Patch, c.Profiles); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EngineOptions returns the engine options this config describes.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		Extractor:    c.Extractor,
		Orchestrator: c.Orchestrator,
		Compositor:   c.Compositor,
		Routings:     c.Routings,
		Profiles:     c.Profiles,
		Base:         c.Base,
		Preset:       c.Preset,
		Pattern:      c.Pattern,
	}
}
