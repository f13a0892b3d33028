package rotation

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLibrary() *Library {
	log, _ := test.NewNullLogger()
	return NewLibrary(rand.New(rand.NewSource(42)), DefaultMomentumDecay, log)
}

func TestLibraryRegistersAllPatterns(t *testing.T) {
	t.Parallel()

	l := newTestLibrary()
	assert.Equal(t, []string{
		Smooth, HyperspaceSpiral, BeatLocked, BassMomentum,
		SpectralOrbit, EnergySweep, ChaosSpin, OnsetSnap,
	}, l.Names())
	assert.Equal(t, Smooth, l.Active())
}

func TestUnknownPattern(t *testing.T) {
	t.Parallel()

	l := newTestLibrary()
	require.NoError(t, l.SetActive(BeatLocked))

	err := l.SetActive("tumble")
	require.True(t, errors.Is(err, ErrUnknownPattern))
	assert.Equal(t, BeatLocked, l.Active())

	require.True(t, errors.Is(l.Reset("tumble"), ErrUnknownPattern))
}

func TestBassMomentum(t *testing.T) {
	t.Parallel()

	l := newTestLibrary()
	require.NoError(t, l.SetActive(BassMomentum))

	hits := []float64{0.9, 0, 0, 0, 0}
	expected := []float64{0.27, 0.2646, 0.2593, 0.2541, 0.2490}
	for i, bass := range hits {
		a := l.Update(Inputs{Bass: bass})
		assert.InDelta(t, expected[i], a.ZW, 1e-4, "tick %d", i)
	}
}

func TestBassMomentumIgnoresQuietBass(t *testing.T) {
	t.Parallel()

	m := AccumulateMomentum(Angles{}, BassHitThreshold, DefaultMomentumDecay)
	assert.Equal(t, Angles{}, m)

	m = AccumulateMomentum(Angles{}, 1, DefaultMomentumDecay)
	assert.InDelta(t, 0.3, m.ZW, 1e-12)
	assert.InDelta(t, 0.1, m.XW, 1e-12)
}

func TestSwitchingKeepsPatternState(t *testing.T) {
	t.Parallel()

	l := newTestLibrary()
	require.NoError(t, l.SetActive(BassMomentum))
	l.Update(Inputs{Bass: 1})

	require.NoError(t, l.SetActive(Smooth))
	for i := 0; i < 10; i++ {
		l.Update(Inputs{TimeMs: float64(i) * 16})
	}

	require.NoError(t, l.SetActive(BassMomentum))
	a := l.Update(Inputs{})
	assert.InDelta(t, 0.3*DefaultMomentumDecay, a.ZW, 1e-12)

	require.NoError(t, l.Reset(BassMomentum))
	assert.Equal(t, Angles{}, l.Update(Inputs{}))
}

func TestBeatLocked(t *testing.T) {
	t.Parallel()

	l := newTestLibrary()
	require.NoError(t, l.SetActive(BeatLocked))

	testCases := []struct {
		beat     int64
		expected float64
	}{
		{0, 0},
		{4, math.Pi / 2},
		{8, math.Pi},
		{17, TWO_PI / 16},
	}
	for _, testCase := range testCases {
		a := l.Update(Inputs{BeatIndex: testCase.beat})
		assert.InDelta(t, testCase.expected, a.XW, 1e-12)
		assert.InDelta(t, testCase.expected*0.5, a.YW, 1e-12)
		assert.InDelta(t, testCase.expected*0.25, a.ZW, 1e-12)
	}
}

func TestEnergySweepIntegratesPhase(t *testing.T) {
	t.Parallel()

	l := newTestLibrary()
	require.NoError(t, l.SetActive(EnergySweep))

	var a Angles
	for i := 0; i < 10; i++ {
		a = l.Update(Inputs{RMS: 0.5, DeltaMs: 100})
	}
	// phase = 10 · 0.5 · 100 · 0.001
	assert.InDelta(t, math.Sin(0.5)*math.Pi, a.XW, 1e-9)
}

func TestChaosSpinWithoutChaosIsSmooth(t *testing.T) {
	t.Parallel()

	l := newTestLibrary()
	require.NoError(t, l.SetActive(ChaosSpin))

	a := l.Update(Inputs{TimeMs: 2000, Chaos: 0})
	assert.InDelta(t, math.Sin(1.0), a.XW, 1e-12)

	for i := 0; i < 20; i++ {
		a = l.Update(Inputs{TimeMs: 2000, Chaos: 1})
		assert.LessOrEqual(t, math.Abs(a.XW), math.Pi)
		assert.LessOrEqual(t, math.Abs(a.ZW), math.Pi)
	}
}

func TestOnsetSnap(t *testing.T) {
	t.Parallel()

	l := newTestLibrary()
	require.NoError(t, l.SetActive(OnsetSnap))

	// weak onsets do not pick a target
	a := l.Update(Inputs{TimeMs: 0, OnsetDetected: true, OnsetStrength: 0.3})
	assert.Equal(t, Angles{}, a)

	a = l.Update(Inputs{TimeMs: 100, OnsetDetected: true, OnsetStrength: 0.9})
	p, _ := l.Get(OnsetSnap)
	target := p.(*onsetSnapPattern).target
	assert.InDelta(t, target.XW*0.1, a.XW, 1e-12)

	// a second strong onset inside 500ms keeps the target
	l.Update(Inputs{TimeMs: 400, OnsetDetected: true, OnsetStrength: 0.9})
	assert.Equal(t, target, p.(*onsetSnapPattern).target)

	// converges toward the target
	for i := 0; i < 200; i++ {
		a = l.Update(Inputs{TimeMs: 500 + float64(i)*16})
	}
	assert.InDelta(t, target.XW, a.XW, 1e-6)
	assert.InDelta(t, target.YW, a.YW, 1e-6)
	assert.InDelta(t, target.ZW, a.ZW, 1e-6)

	l.Update(Inputs{TimeMs: 10000, OnsetDetected: true, OnsetStrength: 0.9})
	assert.NotEqual(t, target, p.(*onsetSnapPattern).target)
}

func TestSpectralOrbitSpeedFollowsCentroid(t *testing.T) {
	t.Parallel()

	l := newTestLibrary()
	require.NoError(t, l.SetActive(SpectralOrbit))

	a := l.Update(Inputs{CentroidHz: 1000, DeltaMs: 500})
	assert.InDelta(t, math.Sin(0.5)*math.Pi, a.XW, 1e-9)

	a = l.Update(Inputs{CentroidHz: 0, DeltaMs: 500})
	assert.InDelta(t, math.Sin(0.5)*math.Pi, a.XW, 1e-9)
}

func TestSmoothAndSpiralAreBounded(t *testing.T) {
	t.Parallel()

	l := newTestLibrary()
	for _, name := range []string{Smooth, HyperspaceSpiral} {
		require.NoError(t, l.SetActive(name))
		for i := 0; i < 100; i++ {
			a := l.Update(Inputs{TimeMs: float64(i) * 123, RMS: 1, BeatPhase: 0.3})
			assert.LessOrEqual(t, math.Abs(a.XW), 2.0)
			assert.LessOrEqual(t, math.Abs(a.YW), 2.0)
			assert.LessOrEqual(t, math.Abs(a.ZW), 2.0)
		}
	}
}
