package choreography

import (
	"testing"
	"time"

	"github.com/robmorgan/hypertone/audio"
	"github.com/robmorgan/hypertone/rotation"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testFrame(bass, rms float64, onset bool, now time.Time) audio.Frame {
	log, _ := test.NewNullLogger()
	f := audio.NewExtractor(audio.Options{}, log).FromBands(map[string]float64{audio.BandBass: bass}, rms, now)
	f.Onset.Detected = onset
	if onset {
		f.Onset.Strength = 1
	}
	return f
}

func TestEnergyTrend(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		energy   func(i int) float64
		expected Trend
	}{
		{"rising", func(i int) float64 { return 0.05 * float64(i) }, TrendBuilding},
		{"falling", func(i int) float64 { return 1 - 0.05*float64(i) }, TrendReleasing},
		{"flat", func(int) float64 { return 0.4 }, TrendStable},
		{"jitter", func(i int) float64 { return 0.4 + 0.001*float64(i%2) }, TrendStable},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var m Memory
			for i := 0; i < 15; i++ {
				now := epoch.Add(time.Duration(i) * 25 * time.Millisecond)
				m.update(testFrame(0, tc.energy(i), false, now), now, DefaultTrendDeadBand, rotation.DefaultMomentumDecay)
			}
			assert.Equal(t, tc.expected, m.EnergyTrend, m.EnergyTrend.String())
		})
	}
}

func TestMemoryCaps(t *testing.T) {
	t.Parallel()

	var m Memory
	for i := 0; i < 40; i++ {
		now := epoch.Add(time.Duration(i) * 500 * time.Millisecond)
		m.update(testFrame(0.9, 0.5, true, now), now, DefaultTrendDeadBand, rotation.DefaultMomentumDecay)
	}
	assert.Len(t, m.RecentBassHits, maxBassHits)
	assert.Len(t, m.EnergyHistory, maxEnergyHistory)
	assert.Equal(t, epoch.Add(39*500*time.Millisecond), m.LastOnsetTime)
	assert.True(t, m.LastOnset.Detected)
}

func TestBassPrediction(t *testing.T) {
	t.Parallel()

	var m Memory
	hit := func(at time.Duration) {
		now := epoch.Add(at)
		m.update(testFrame(0.9, 0.5, true, now), now, DefaultTrendDeadBand, rotation.DefaultMomentumDecay)
	}

	hit(0)
	hit(500 * time.Millisecond)
	assert.False(t, m.HasPrediction())

	hit(1000 * time.Millisecond)
	require.True(t, m.HasPrediction())
	assert.Equal(t, epoch.Add(1500*time.Millisecond), m.PredictedNextBass)

	assert.True(t, m.Predicted(epoch.Add(1540*time.Millisecond)))
	assert.True(t, m.Predicted(epoch.Add(1450*time.Millisecond)))
	assert.False(t, m.Predicted(epoch.Add(1600*time.Millisecond)))
}

func TestWeakBassIsNotAHit(t *testing.T) {
	t.Parallel()

	var m Memory
	now := epoch
	m.update(testFrame(0.3, 0.5, true, now), now, DefaultTrendDeadBand, rotation.DefaultMomentumDecay)
	assert.Empty(t, m.RecentBassHits)
	assert.Equal(t, now, m.LastOnsetTime)
}

func TestRotationMomentumInMemory(t *testing.T) {
	t.Parallel()

	var m Memory
	expected := []float64{0.27, 0.2646, 0.2593, 0.2541, 0.2490}
	for i, bass := range []float64{0.9, 0, 0, 0, 0} {
		now := epoch.Add(time.Duration(i) * 25 * time.Millisecond)
		m.update(testFrame(bass, 0, false, now), now, DefaultTrendDeadBand, rotation.DefaultMomentumDecay)
		assert.InDelta(t, expected[i], m.RotationMomentum.ZW, 1e-4)
	}
}

func TestMemoryCloneIsIndependent(t *testing.T) {
	t.Parallel()

	var m Memory
	m.update(testFrame(0.9, 0.5, true, epoch), epoch, DefaultTrendDeadBand, rotation.DefaultMomentumDecay)
	c := m.Clone()
	c.EnergyHistory[0] = 42
	assert.NotEqual(t, 42.0, m.EnergyHistory[0])
}
