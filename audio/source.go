package audio

import (
	"io"
	"math"
	"math/cmplx"
	"os"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/ktye/fft"
	"github.com/robmorgan/hypertone/engine/scale"
)

const (
	// Decibel window used when converting FFT magnitudes to byte range.
	minDecibels = -100.0
	maxDecibels = -30.0
)

// Source supplies raw audio snapshots, one per tick. Implementations wrap platform capture or files.
type Source interface {
	Read() (Input, error)
}

// WAVSource reads a WAV file and produces one analysis window per Read, advancing by hop samples.
type WAVSource struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	fft      fft.FFT
	window   []float64
	mono     []float64
	buf      [][2]float64
	loop     bool
}

// OpenWAV opens path for analysis. size must be a power of two; hop is the number of samples consumed per
// Read, usually sampleRate/fps.
func OpenWAV(path string, size, hop int, loop bool) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	src, err := NewWAVSource(f, size, hop, loop)
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

// NewWAVSource decodes r as WAV.
func NewWAVSource(r io.Reader, size, hop int, loop bool) (*WAVSource, error) {
	streamer, format, err := wav.Decode(r)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	t, err := fft.New(size)
	if err != nil {
		streamer.Close()
		return nil, errors.WithStackTrace(err)
	}

	// Hann window
	window := make([]float64, size)
	for i := range window {
		window[i] = (1 - math.Cos(2*math.Pi*float64(i)/float64(size))) / 2
	}

	if hop <= 0 || hop > size {
		hop = size
	}
	// rewinding needs a seekable reader
	if _, ok := r.(io.Seeker); !ok {
		loop = false
	}

	return &WAVSource{
		streamer: streamer,
		format:   format,
		fft:      t,
		window:   window,
		mono:     make([]float64, size),
		buf:      make([][2]float64, hop),
		loop:     loop,
	}, nil
}

// SampleRate returns the decoded sample rate in Hz.
func (s *WAVSource) SampleRate() float64 {
	return float64(s.format.SampleRate)
}

// Read consumes the next hop of samples and returns the spectrum and waveform of the latest window. When
// looping, the stream is rewound at most once per Read; a file without samples reports io.EOF.
func (s *WAVSource) Read() (Input, error) {
	n, err := s.stream()
	if err == io.EOF && s.loop {
		if err := s.streamer.Seek(0); err != nil {
			return Input{}, errors.WithStackTrace(err)
		}
		n, err = s.stream()
	}
	if err != nil {
		return Input{}, err
	}

	// slide the mono window left and append the new samples
	size := len(s.mono)
	copy(s.mono, s.mono[n:])
	for i := 0; i < n; i++ {
		s.mono[size-n+i] = (s.buf[i][0] + s.buf[i][1]) / 2
	}

	return Input{
		Spectrum:   s.spectrum(),
		Waveform:   s.waveform(),
		SampleRate: s.SampleRate(),
	}, nil
}

func (s *WAVSource) stream() (int, error) {
	n, ok := s.streamer.Stream(s.buf)
	if ok && n > 0 {
		return n, nil
	}
	if err := s.streamer.Err(); err != nil {
		return 0, errors.WithStackTrace(err)
	}
	return 0, io.EOF
}

// Close releases the decoder.
func (s *WAVSource) Close() error {
	return s.streamer.Close()
}

func (s *WAVSource) spectrum() []byte {
	size := len(s.mono)
	x := make([]complex128, size)
	for i, v := range s.mono {
		x[i] = complex(v*s.window[i], 0)
	}
	x = s.fft.Transform(x)

	toByte := scale.Linear(minDecibels, maxDecibels, 0, 255)
	out := make([]byte, size/2)
	for i := range out {
		mag := cmplx.Abs(x[i]) / float64(size)
		db := minDecibels
		if mag > 0 {
			db = 20 * math.Log10(mag)
		}
		out[i] = byte(toByte(db))
	}
	return out
}

func (s *WAVSource) waveform() []byte {
	out := make([]byte, len(s.mono))
	for i, v := range s.mono {
		out[i] = byte(scale.Clamp(128+v*127, 0, 255))
	}
	return out
}
