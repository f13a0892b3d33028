package audio

import (
	"math"
	"time"

	"github.com/robmorgan/hypertone/engine/scale"
	"github.com/sirupsen/logrus"
)

const (
	// CentroidAnchorHz is the frequency that maps to a normalized centroid of 1.
	CentroidAnchorHz = 10000.0

	// RolloffFraction is the share of total spectral energy below the rolloff bin.
	RolloffFraction = 0.85

	// DefaultBPM is the tempo estimate held until enough onsets have been seen.
	DefaultBPM = 120.0
	MinBPM     = 60.0
	MaxBPM     = 200.0
)

// Options tunes the behaviour of the Extractor.
type Options struct {
	// Smoothing is the band smoothing factor α in smoothed = α·smoothed + (1-α)·raw.
	Smoothing float64 `yaml:"smoothing"`

	// OnsetThreshold is the spectral flux above which an onset may fire.
	OnsetThreshold float64 `yaml:"onset_threshold"`

	// MinOnsetGap is the refractory period between two onsets.
	MinOnsetGap time.Duration `yaml:"min_onset_gap"`

	// OnsetHistory caps the number of onset timestamps kept for tempo estimation.
	OnsetHistory int `yaml:"onset_history"`

	DefaultBPM float64 `yaml:"default_bpm"`
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Smoothing:      0.82,
		OnsetThreshold: 0.15,
		MinOnsetGap:    100 * time.Millisecond,
		OnsetHistory:   32,
		DefaultBPM:     DefaultBPM,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Smoothing < 0 || o.Smoothing > 1 {
		o.Smoothing = d.Smoothing
	}
	if o.OnsetThreshold <= 0 {
		o.OnsetThreshold = d.OnsetThreshold
	}
	if o.MinOnsetGap <= 0 {
		o.MinOnsetGap = d.MinOnsetGap
	}
	if o.OnsetHistory <= 0 {
		o.OnsetHistory = d.OnsetHistory
	}
	if o.DefaultBPM <= 0 {
		o.DefaultBPM = d.DefaultBPM
	}
	return o
}

// Input is one raw spectral snapshot plus the matching time-domain buffer.
type Input struct {
	// Spectrum holds byte-range magnitudes, one per bin from 0 Hz up to Nyquist.
	Spectrum []byte
	// Waveform holds unsigned 8-bit samples centred on 128.
	Waveform   []byte
	SampleRate float64
}

// Valid reports whether the input carries enough data to analyse.
func (in Input) Valid() bool {
	return len(in.Spectrum) > 0 && in.SampleRate > 0
}

// Extractor turns raw spectral and waveform snapshots into Frames. It is not safe for concurrent use; the
// engine owns one per instance.
type Extractor struct {
	opts Options
	log  logrus.FieldLogger

	smoothed     [NumBands]float64
	prevSpectrum []float64

	lastOnset time.Time
	tempo     *bpmTracker

	lastFrame time.Time
	beatPos   float64
	motion    float64
}

// NewExtractor returns an Extractor. Zero-valued options fall back to DefaultOptions.
func NewExtractor(opts Options, log logrus.FieldLogger) *Extractor {
	opts = opts.withDefaults()
	return &Extractor{
		opts:  opts,
		log:   log,
		tempo: newBPMTracker(opts.OnsetHistory, opts.DefaultBPM),
	}
}

// Options returns the effective options.
func (e *Extractor) Options() Options {
	return e.opts
}

// BPM returns the current tempo estimate.
func (e *Extractor) BPM() float64 {
	return e.tempo.BPM()
}

// Smooth applies one step of exponential smoothing. The result always lies between prev and raw.
func Smooth(prev, raw, alpha float64) float64 {
	alpha = scale.Clamp(alpha, 0, 1)
	return alpha*prev + (1-alpha)*raw
}

// Process analyses one snapshot. Inputs that cannot be analysed produce a silent frame instead of an error.
func (e *Extractor) Process(in Input, now time.Time) Frame {
	if !in.Valid() {
		e.log.Debug("no audio input this tick, emitting silent frame")
		return e.Silent(now)
	}

	mags := make([]float64, len(in.Spectrum))
	for i, b := range in.Spectrum {
		mags[i] = float64(b)
	}

	f := Frame{Time: now, Bands: newBands()}
	nyquist := in.SampleRate / 2
	for i := range CanonicalBands {
		raw := bandAverage(mags, CanonicalBands[i], nyquist)
		e.smoothed[i] = Smooth(e.smoothed[i], raw, e.opts.Smoothing)
		f.Bands[i].Value = e.smoothed[i]
	}

	f.SpectralCentroid = centroid(mags, nyquist)
	f.SpectralRolloff = rolloff(mags)
	f.SpectralFlux = e.flux(mags)
	f.RMS = rms(in.Waveform)
	f.Onset = e.detectOnset(f.SpectralFlux, now)
	f.BPM = e.tempo.BPM()

	e.derive(&f)
	return f
}

// FromBands builds a frame from band values supplied by a collaborator that performs its own analysis.
// Missing bands default to 0; "air" and "ultraHigh" alias each other when only one is supplied.
func (e *Extractor) FromBands(values map[string]float64, level float64, now time.Time) Frame {
	f := Frame{Time: now, Bands: newBands()}
	for i, b := range CanonicalBands {
		v, ok := values[b.Name]
		if !ok && b.Name == BandUltraHigh {
			v = values[BandAir]
		}
		f.Bands[i].Value = scale.Unit(v)
	}
	f.RMS = scale.Unit(level)
	f.Onset = Onset{Time: now}
	f.BPM = e.tempo.BPM()

	e.derive(&f)
	return f
}

// Silent returns an all-zero, well-formed frame. The held tempo estimate is kept so beat tracking stays
// stable across source dropouts.
func (e *Extractor) Silent(now time.Time) Frame {
	return Frame{
		Time:  now,
		Bands: newBands(),
		Onset: Onset{Time: now},
		BPM:   e.tempo.BPM(),
	}
}

// Reset clears smoothing, onset and tempo history.
func (e *Extractor) Reset() {
	e.smoothed = [NumBands]float64{}
	e.prevSpectrum = nil
	e.lastOnset = time.Time{}
	e.tempo = newBPMTracker(e.opts.OnsetHistory, e.opts.DefaultBPM)
	e.lastFrame = time.Time{}
	e.beatPos = 0
	e.motion = 0
}

func (e *Extractor) detectOnset(flux float64, now time.Time) Onset {
	onset := Onset{Strength: flux, Time: now}
	if flux <= e.opts.OnsetThreshold {
		return onset
	}
	if !e.lastOnset.IsZero() && now.Sub(e.lastOnset) < e.opts.MinOnsetGap {
		return onset
	}

	onset.Detected = true
	e.lastOnset = now
	bpm := e.tempo.Record(now)
	e.log.WithFields(logrus.Fields{"strength": flux, "bpm": bpm}).Trace("onset")
	return onset
}

// flux sums positive frame-to-frame magnitude increases, normalized by n·128.
func (e *Extractor) flux(mags []float64) float64 {
	prev := e.prevSpectrum
	e.prevSpectrum = mags
	if len(prev) != len(mags) {
		return 0
	}

	sum := 0.0
	for i, m := range mags {
		if d := m - prev[i]; d > 0 {
			sum += d
		}
	}
	return scale.Unit(sum / (float64(len(mags)) * 128))
}

func bandAverage(mags []float64, b Band, nyquist float64) float64 {
	n := len(mags)
	lo := scale.Clamp(binIndex(b.LowHz, nyquist, n), 0, n-1)
	hi := scale.Clamp(binIndex(b.HighHz, nyquist, n), 0, n)
	if hi <= lo {
		hi = lo + 1
	}

	sum := 0.0
	for i := lo; i < hi; i++ {
		sum += mags[i]
	}
	return scale.Unit(sum / float64(hi-lo) / 255)
}

func centroid(mags []float64, nyquist float64) float64 {
	binHz := nyquist / float64(len(mags))
	weighted, total := 0.0, 0.0
	for i, m := range mags {
		weighted += float64(i) * binHz * m
		total += m
	}
	if total == 0 {
		return 0
	}
	return scale.Unit(weighted / total / CentroidAnchorHz)
}

func rolloff(mags []float64) float64 {
	total := 0.0
	for _, m := range mags {
		total += m
	}
	if total == 0 {
		return 0
	}

	target := total * RolloffFraction
	cumulative := 0.0
	for i, m := range mags {
		cumulative += m
		if cumulative >= target {
			return float64(i) / float64(len(mags))
		}
	}
	return 1
}

func rms(waveform []byte) float64 {
	if len(waveform) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range waveform {
		s := (float64(b) - 128) / 128
		sum += s * s
	}
	return scale.Unit(math.Sqrt(sum / float64(len(waveform))))
}
