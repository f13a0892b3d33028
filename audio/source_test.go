package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeWAV builds a 16-bit stereo PCM file with both channels carrying the same samples.
func encodeWAV(t *testing.T, sampleRate int32, samples []int16) *bytes.Reader {
	t.Helper()

	const (
		channels      = 2
		bytesPerFrame = channels * 2
	)
	dataSize := int32(len(samples) * bytesPerFrame)

	var buf bytes.Buffer
	write := func(v interface{}) {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	buf.WriteString("RIFF")
	write(int32(36) + dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	write(int32(16))
	write(int16(1)) // PCM
	write(int16(channels))
	write(sampleRate)
	write(sampleRate * bytesPerFrame)
	write(int16(bytesPerFrame))
	write(int16(16))
	buf.WriteString("data")
	write(dataSize)
	for _, s := range samples {
		write(s)
		write(s)
	}
	return bytes.NewReader(buf.Bytes())
}

func constantSamples(n int, v int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestWAVSourceWithoutSamplesEnds(t *testing.T) {
	t.Parallel()

	for _, loop := range []bool{false, true} {
		src, err := NewWAVSource(encodeWAV(t, 44100, nil), 16, 4, loop)
		require.NoError(t, err)

		_, err = src.Read()
		assert.ErrorIs(t, err, io.EOF, "loop=%v", loop)
		_, err = src.Read()
		assert.ErrorIs(t, err, io.EOF, "loop=%v", loop)
	}
}

func TestWAVSourceSlidesByHop(t *testing.T) {
	t.Parallel()

	src, err := NewWAVSource(encodeWAV(t, 22050, constantSamples(8, 32767)), 16, 4, false)
	require.NoError(t, err)
	assert.Equal(t, 22050.0, src.SampleRate())

	in, err := src.Read()
	require.NoError(t, err)
	assert.Len(t, in.Spectrum, 8)
	require.Len(t, in.Waveform, 16)
	assert.Equal(t, 22050.0, in.SampleRate)
	// only the newest hop carries signal
	assert.Equal(t, byte(128), in.Waveform[11])
	assert.Equal(t, byte(191), in.Waveform[12])
	assert.Equal(t, byte(191), in.Waveform[15])

	in, err = src.Read()
	require.NoError(t, err)
	assert.Equal(t, byte(128), in.Waveform[7])
	assert.Equal(t, byte(191), in.Waveform[8])

	_, err = src.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWAVSourceLoops(t *testing.T) {
	t.Parallel()

	src, err := NewWAVSource(encodeWAV(t, 44100, constantSamples(4, 32767)), 16, 4, true)
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		in, err := src.Read()
		require.NoError(t, err, "read %d", i)
		assert.Equal(t, byte(191), in.Waveform[15])
	}
}

func TestWAVSourceSpectrum(t *testing.T) {
	t.Parallel()

	silent, err := NewWAVSource(encodeWAV(t, 44100, constantSamples(16, 0)), 16, 16, false)
	require.NoError(t, err)
	in, err := silent.Read()
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 8), in.Spectrum)
	assert.Equal(t, byte(128), in.Waveform[0])

	// a full window of constant signal puts all energy in the lowest bins
	dc, err := NewWAVSource(encodeWAV(t, 44100, constantSamples(16, 32767)), 16, 4, false)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		in, err = dc.Read()
		require.NoError(t, err)
	}
	assert.Equal(t, byte(255), in.Spectrum[0])
	assert.Equal(t, byte(255), in.Spectrum[1])
	assert.Equal(t, byte(0), in.Spectrum[4])
	for _, b := range in.Waveform {
		assert.Equal(t, byte(191), b)
	}
}

func TestWAVSourceRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := NewWAVSource(bytes.NewReader([]byte("not a wav file at all")), 16, 4, false)
	assert.Error(t, err)
}
