package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robmorgan/hypertone/compositor"
	"github.com/robmorgan/hypertone/profile"
	"github.com/robmorgan/hypertone/rotation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 40, cfg.FPS)
	assert.Equal(t, 0.82, cfg.Extractor.Smoothing)
	assert.Equal(t, 100*time.Millisecond, cfg.Extractor.MinOnsetGap)
	assert.Equal(t, rotation.Smooth, cfg.Pattern)
	assert.NoError(t, ValidatePatch(cfg.DMX.Patch, cfg.Profiles))
}

func TestParseOverlaysDefaults(t *testing.T) {
	t.Parallel()

	doc := `
fps: 60
pattern: bass_momentum
extractor:
  smoothing: 0.5
  min_onset_gap: 150ms
compositor:
  mode: full-auto
  balance: normalized
  weights: {manual: 0.8, choreography: 0.7, reaction: 1.0}
routings:
  - {target: chaos, source: bass, amount: 1.5, curve: exponential, range_limit: {min: 0, max: 1}}
profiles:
  hue: {default: 120}
preset:
  intensity: 0.9
library:
  path: sequences.yaml
  watch: true
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.FPS)
	assert.Equal(t, rotation.BassMomentum, cfg.Pattern)
	assert.Equal(t, 0.5, cfg.Extractor.Smoothing)
	assert.Equal(t, 150*time.Millisecond, cfg.Extractor.MinOnsetGap)
	assert.Equal(t, 0.15, cfg.Extractor.OnsetThreshold)
	assert.Equal(t, compositor.FullAuto, cfg.Compositor.Mode)
	assert.Equal(t, compositor.Normalized, cfg.Compositor.Balance)
	assert.Equal(t, 0.7, cfg.Compositor.Weights.Choreography)
	assert.Equal(t, 1.0, cfg.Compositor.ReactionAmount)

	require.Len(t, cfg.Routings, 1)
	assert.Equal(t, &compositor.Range{Min: 0, Max: 1}, cfg.Routings[0].RangeLimit)

	hue := cfg.Profiles[profile.ParamHue]
	assert.Equal(t, 120.0, hue.Default)
	assert.Equal(t, 360.0, hue.Max)
	assert.Len(t, cfg.Profiles, len(profile.Defaults()))

	assert.True(t, cfg.Library.Watch)
	opts := cfg.EngineOptions()
	assert.Equal(t, 0.9, opts.Preset[profile.ParamIntensity])
}

func TestParseRejectsInvalid(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		doc  string
	}{
		{"fps", "fps: 0"},
		{"smoothing", "extractor: {smoothing: 1.5}"},
		{"routing band", "routings: [{target: chaos, source: treble, amount: 1}]"},
		{"routing target", "routings: [{target: wobble, source: bass, amount: 1}]"},
		{"mode", "compositor: {mode: autopilot}"},
		{"preset", "preset: {wobble: 1}"},
		{"dmx patch", "dmx: {enabled: true, patch: [{parameter: hue, universe: 1, address: 600}]}"},
		{"yaml", "fps: ["},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hypertone.yaml")
	require.NoError(t, os.WriteFile(path, []byte("osc: {enabled: true, port: 7000}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.OSC.Enabled)
	assert.Equal(t, 7000, cfg.OSC.Port)
	assert.Equal(t, "127.0.0.1", cfg.OSC.Host)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidatePatchDuplicates(t *testing.T) {
	t.Parallel()

	patch := []PatchedParameter{
		{Parameter: profile.ParamHue, Universe: 1, Address: 4},
		{Parameter: profile.ParamChaos, Universe: 1, Address: 4},
	}
	assert.Error(t, ValidatePatch(patch, profile.Defaults()))

	patch[1].Universe = 2
	assert.NoError(t, ValidatePatch(patch, profile.Defaults()))
}
