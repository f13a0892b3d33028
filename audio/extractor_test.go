package audio

import (
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSampleRate = 44100.0

func newTestExtractor(opts Options) *Extractor {
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.TraceLevel)
	return NewExtractor(opts, log)
}

func flatSpectrum(n int, v byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSmoothIsConvex(t *testing.T) {
	t.Parallel()

	values := []float64{0, 0.1, 0.5, 0.9, 1}
	alphas := []float64{0, 0.25, 0.5, 0.8, 0.85, 1}
	for _, prev := range values {
		for _, raw := range values {
			for _, alpha := range alphas {
				got := Smooth(prev, raw, alpha)
				lo, hi := math.Min(prev, raw), math.Max(prev, raw)
				assert.GreaterOrEqual(t, got, lo-1e-12)
				assert.LessOrEqual(t, got, hi+1e-12)
			}
		}
	}
}

func TestBandSmoothingConverges(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(Options{Smoothing: 0.8})
	t0 := time.Unix(0, 0)
	in := Input{Spectrum: flatSpectrum(1024, 255), Waveform: flatSpectrum(1024, 128), SampleRate: testSampleRate}

	f := e.Process(in, t0)
	assert.InDelta(t, 0.2, f.Bass(), 1e-9)

	f = e.Process(in, t0.Add(20*time.Millisecond))
	assert.InDelta(t, 0.36, f.Bass(), 1e-9)

	for i := 2; i < 100; i++ {
		f = e.Process(in, t0.Add(time.Duration(i)*20*time.Millisecond))
	}
	for _, b := range f.Bands {
		assert.InDelta(t, 1.0, b.Value, 1e-6, b.Name)
	}
}

func TestSpectralFeatures(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(DefaultOptions())
	spectrum := make([]byte, 100)
	spectrum[10] = 200
	waveform := []byte{0, 255, 0, 255}

	f := e.Process(Input{Spectrum: spectrum, Waveform: waveform, SampleRate: 20000}, time.Unix(0, 0))

	// bin 10 of 100 over a 10 kHz Nyquist sits at 1 kHz
	assert.InDelta(t, 0.1, f.SpectralCentroid, 1e-9)
	assert.InDelta(t, 0.1, f.SpectralRolloff, 1e-9)
	assert.Equal(t, 0.0, f.SpectralFlux)
	assert.InDelta(t, 1.0, f.RMS, 0.01)
}

func TestFluxIsPositiveOnly(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(DefaultOptions())
	t0 := time.Unix(0, 0)
	loud := Input{Spectrum: flatSpectrum(64, 128), SampleRate: testSampleRate}
	quiet := Input{Spectrum: flatSpectrum(64, 0), SampleRate: testSampleRate}

	e.Process(quiet, t0)
	f := e.Process(loud, t0.Add(time.Second))
	assert.InDelta(t, 1.0, f.SpectralFlux, 1e-9)
	assert.True(t, f.Onset.Detected)

	f = e.Process(quiet, t0.Add(2*time.Second))
	assert.Equal(t, 0.0, f.SpectralFlux)
	assert.False(t, f.Onset.Detected)
}

func TestOnsetNeverDoubleFiresWithinGap(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(DefaultOptions())
	t0 := time.Unix(0, 0)
	quiet := Input{Spectrum: flatSpectrum(64, 0), SampleRate: testSampleRate}
	loud := Input{Spectrum: flatSpectrum(64, 200), SampleRate: testSampleRate}

	// a quiet frame between loud frames makes the flux cross the threshold every 40ms
	var onsets []time.Time
	now := t0
	e.Process(quiet, now)
	for i := 0; i < 50; i++ {
		now = now.Add(20 * time.Millisecond)
		f := e.Process(loud, now)
		require.Greater(t, f.SpectralFlux, DefaultOptions().OnsetThreshold)
		if f.Onset.Detected {
			onsets = append(onsets, now)
		}
		now = now.Add(20 * time.Millisecond)
		e.Process(quiet, now)
	}

	require.NotEmpty(t, onsets)
	for i := 1; i < len(onsets); i++ {
		assert.GreaterOrEqual(t, onsets[i].Sub(onsets[i-1]), 100*time.Millisecond)
	}
}

func TestBPMIsClamped(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		interval time.Duration
		expected float64
	}{
		{10 * time.Millisecond, 200},
		{2000 * time.Millisecond, 60},
		{500 * time.Millisecond, 120},
		{400 * time.Millisecond, 150},
	}

	for _, testCase := range testCases {
		tracker := newBPMTracker(32, DefaultBPM)
		t0 := time.Unix(0, 0)
		var bpm float64
		for i := 0; i < 8; i++ {
			bpm = tracker.Record(t0.Add(time.Duration(i) * testCase.interval))
		}
		assert.InDelta(t, testCase.expected, bpm, 1e-9, "interval %v", testCase.interval)
	}
}

func TestBPMHeldUntilFourOnsets(t *testing.T) {
	t.Parallel()

	tracker := newBPMTracker(32, DefaultBPM)
	t0 := time.Unix(0, 0)
	for i := 0; i < 3; i++ {
		assert.Equal(t, DefaultBPM, tracker.Record(t0.Add(time.Duration(i)*300*time.Millisecond)))
	}
	assert.InDelta(t, 200.0, tracker.Record(t0.Add(900*time.Millisecond)), 1e-9)
}

func TestBPMUsesMedian(t *testing.T) {
	t.Parallel()

	tracker := newBPMTracker(32, DefaultBPM)
	t0 := time.Unix(0, 0)
	offsets := []int{0, 500, 1000, 1500, 1600, 2100}
	var bpm float64
	for _, ms := range offsets {
		bpm = tracker.Record(t0.Add(time.Duration(ms) * time.Millisecond))
	}
	// intervals 500,500,500,100,500: the outlier does not move the estimate
	assert.InDelta(t, 120.0, bpm, 1e-9)
}

func TestInvalidInputYieldsSilentFrame(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(DefaultOptions())
	now := time.Unix(10, 0)
	f := e.Process(Input{}, now)

	assert.Equal(t, now, f.Time)
	assert.Equal(t, DefaultBPM, f.BPM)
	assert.False(t, f.Onset.Detected)
	assert.Equal(t, 0.0, f.RMS)
	for i, b := range f.Bands {
		assert.Equal(t, CanonicalBands[i].Name, b.Name)
		assert.Equal(t, 0.0, b.Value)
	}
}

func TestFromBandsDefaultsAndAlias(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(DefaultOptions())
	now := time.Unix(0, 0)

	f := e.FromBands(map[string]float64{BandBass: 0.4, BandAir: 0.7}, 0.3, now)
	assert.Equal(t, 0.4, f.Bass())
	assert.Equal(t, 0.7, f.Band(BandUltraHigh))
	assert.Equal(t, 0.7, f.Band(BandAir))
	assert.Equal(t, 0.0, f.Band(BandSubBass))
	assert.Equal(t, 0.3, f.Energy())

	f = e.FromBands(map[string]float64{BandUltraHigh: 0.2, BandAir: 0.9}, 0, now)
	assert.Equal(t, 0.2, f.Band(BandUltraHigh))
}

func TestDerivedFeaturesInRange(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(DefaultOptions())
	t0 := time.Unix(0, 0)
	for i := 0; i < 200; i++ {
		v := byte((i * 37) % 256)
		in := Input{Spectrum: flatSpectrum(256, v), Waveform: flatSpectrum(256, v), SampleRate: testSampleRate}
		f := e.Process(in, t0.Add(time.Duration(i)*25*time.Millisecond))

		assert.GreaterOrEqual(t, f.Rhythm.Beat, 0.0)
		assert.Less(t, f.Rhythm.Beat, 1.0)
		assert.GreaterOrEqual(t, f.Rhythm.Measure, 0.0)
		assert.Less(t, f.Rhythm.Measure, 1.0)
		assert.GreaterOrEqual(t, f.Dynamics.IntensityExponent, 1.0)
		assert.LessOrEqual(t, f.Dynamics.IntensityExponent, 3.0)
		assert.LessOrEqual(t, f.Dynamics.MotionVelocity, 2.0)
		assert.GreaterOrEqual(t, f.Color.Orbit, 0.0)
		assert.Less(t, f.Color.Orbit, 360.0)
		assert.Len(t, f.Color.DownbeatColor, 7)
		assert.GreaterOrEqual(t, f.BPM, MinBPM)
		assert.LessOrEqual(t, f.BPM, MaxBPM)
	}
}

func TestBeatClockAdvancesWithTempo(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(DefaultOptions())
	t0 := time.Unix(0, 0)
	in := Input{Spectrum: flatSpectrum(64, 0), SampleRate: testSampleRate}

	e.Process(in, t0)
	// a quarter of a beat at 120 BPM
	f := e.Process(in, t0.Add(125*time.Millisecond))
	assert.InDelta(t, 0.25, f.Rhythm.Beat, 1e-9)
	assert.InDelta(t, 0.0625, f.Rhythm.Measure, 1e-9)
}
