package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	gaudio "github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sineBuffer synthesizes a mono sine tone of the given length.
func sineBuffer(t *testing.T, durationSec float64, rate int, amplitude float64) *Buffer {
	t.Helper()
	frames := int(durationSec * float64(rate))
	data := make([]float64, frames)
	for i := range data {
		data[i] = amplitude * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
	}
	return &Buffer{Data: data, SampleRate: rate}
}

func TestDecode_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "tone.wav")

	src := sineBuffer(t, 1.5, 16000, 0.8)
	require.NoError(t, Export(ToFixedPoint(src), path))

	got, err := Decode(path)
	require.NoError(t, err)

	assert.Equal(t, 16000, got.SampleRate)
	// Duration must survive within one frame of rounding error.
	assert.InDelta(t, src.Duration(), got.Duration(), 1.0/16000)
	require.Equal(t, src.Frames(), got.Frames())

	// Samples survive the 16-bit round trip within one quantization step.
	for i := 0; i < got.Frames(); i += 1000 {
		assert.InDelta(t, src.Data[i], got.Data[i], 1.0/32767)
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Decode(filepath.Join(t.TempDir(), "nope.wav"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "garbage.wav")
		require.NoError(t, os.WriteFile(path, []byte("not a wav at all"), 0o600))

		_, err := Decode(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("zero-byte file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.wav")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		_, err := Decode(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDecode)
	})
}

func TestToFixedPoint(t *testing.T) {
	buf := &Buffer{
		Data:       []float64{0, 0.5, -0.5, 1, -1, 1.7, -1.7},
		SampleRate: 8000,
	}

	fixed := ToFixedPoint(buf)

	require.Len(t, fixed.Data, 7)
	assert.Equal(t, 0, fixed.Data[0])
	assert.Equal(t, int(math.Round(0.5*32767)), fixed.Data[1])
	assert.Equal(t, int(math.Round(-0.5*32767)), fixed.Data[2])
	assert.Equal(t, 32767, fixed.Data[3])
	assert.Equal(t, -32767, fixed.Data[4])
	// Out-of-range samples clamp instead of wrapping.
	assert.Equal(t, 32767, fixed.Data[5])
	assert.Equal(t, -32767, fixed.Data[6])

	assert.Equal(t, 1, fixed.Format.NumChannels)
	assert.Equal(t, 8000, fixed.Format.SampleRate)
	assert.Equal(t, 16, fixed.SourceBitDepth)
}

func TestSlice(t *testing.T) {
	fixed := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: 1000},
		Data:           make([]int, 10000), // 10 seconds at 1 kHz
		SourceBitDepth: 16,
	}

	t.Run("window converts via rounding", func(t *testing.T) {
		got, err := Slice(fixed, 2.0, 9.0)
		require.NoError(t, err)
		assert.Len(t, got.Data, 7000)
	})

	t.Run("fractional boundaries round to nearest frame", func(t *testing.T) {
		got, err := Slice(fixed, 0.0004, 1.0006) // rounds to [0, 1001)
		require.NoError(t, err)
		assert.Len(t, got.Data, 1001)
	})

	t.Run("empty window after rounding", func(t *testing.T) {
		_, err := Slice(fixed, 3.0001, 3.0004)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRange)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := Slice(fixed, 5.0, 2.0)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRange)
	})

	t.Run("window outside buffer", func(t *testing.T) {
		_, err := Slice(fixed, 8.0, 12.0)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRange)
	})
}

func TestExport_CreatesParentDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "speaker01", "session02", "clip.wav")

	buf := sineBuffer(t, 0.1, 16000, 0.5)
	require.NoError(t, Export(ToFixedPoint(buf), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(44)) // more than a bare WAV header
}

func TestExport_OverwritesExisting(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "clip.wav")

	long := sineBuffer(t, 1.0, 16000, 0.5)
	require.NoError(t, Export(ToFixedPoint(long), path))

	short := sineBuffer(t, 0.2, 16000, 0.5)
	require.NoError(t, Export(ToFixedPoint(short), path))

	got, err := Decode(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, got.Duration(), 1.0/16000)
}
