package vad

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxprep/voxprep/internal/audio"
)

// writeTestWAV synthesizes a recording of durationSec seconds that is silent
// except for 440 Hz tone bursts at the given [start, end) second ranges.
func writeTestWAV(t *testing.T, path string, durationSec float64, bursts [][2]float64) {
	t.Helper()

	const rate = 16000
	data := make([]float64, int(durationSec*rate))
	for _, b := range bursts {
		start := int(b[0] * rate)
		end := int(b[1] * rate)
		for i := start; i < end && i < len(data); i++ {
			data[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/rate)
		}
	}

	buf := &audio.Buffer{Data: data, SampleRate: rate}
	require.NoError(t, audio.Export(audio.ToFixedPoint(buf), path))
}

func TestEnergyDetector_FindsBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bursts.wav")
	writeTestWAV(t, path, 10, [][2]float64{{2.0, 3.0}, {7.5, 9.0}})

	det := NewEnergyDetector(Options{})
	tl, err := det.Detect(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, tl, 2)

	const tol = 0.05 // analysis windows blur boundaries by a few hops
	assert.InDelta(t, 2.0, tl[0].Start, tol)
	assert.InDelta(t, 3.0, tl[0].End, tol)
	assert.InDelta(t, 7.5, tl[1].Start, tol)
	assert.InDelta(t, 9.0, tl[1].End, tol)
}

func TestEnergyDetector_Silence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	writeTestWAV(t, path, 3, nil)

	det := NewEnergyDetector(Options{})
	tl, err := det.Detect(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, tl)
}

func TestEnergyDetector_MinDurationOn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blip.wav")
	// One real utterance and one 100 ms blip.
	writeTestWAV(t, path, 6, [][2]float64{{1.0, 3.0}, {4.5, 4.6}})

	det := NewEnergyDetector(Options{MinDurationOn: 0.5})
	tl, err := det.Detect(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, tl, 1)
	assert.InDelta(t, 1.0, tl[0].Start, 0.05)
	assert.InDelta(t, 3.0, tl[0].End, 0.05)
}

func TestEnergyDetector_MinDurationOff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gap.wav")
	// Two bursts separated by a 200 ms pause.
	writeTestWAV(t, path, 5, [][2]float64{{1.0, 2.0}, {2.2, 3.2}})

	det := NewEnergyDetector(Options{MinDurationOff: 0.4})
	tl, err := det.Detect(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, tl, 1)
	assert.InDelta(t, 1.0, tl[0].Start, 0.05)
	assert.InDelta(t, 3.2, tl[0].End, 0.05)
}

func TestMaskToTimeline_MergesOverlap(t *testing.T) {
	const (
		enter  = 0.1
		exit   = 0.05
		winSec = 0.025
		hopSec = 0.010
	)

	// Two bursts separated by a single sub-threshold hop: the first interval
	// ends a full window past its last frame, reaching into the second.
	rms := []float64{0.2, 0.02, 0.2, 0.02}
	tl := maskToTimeline(rms, enter, exit, winSec, hopSec)
	require.Len(t, tl, 1)
	assert.InDelta(t, 0.0, tl[0].Start, 1e-9)
	assert.InDelta(t, 0.055, tl[0].End, 1e-9)

	// A longer pause keeps the bursts apart and non-overlapping.
	rms = []float64{0.2, 0.02, 0.02, 0.02, 0.02, 0.02, 0.2, 0.02}
	tl = maskToTimeline(rms, enter, exit, winSec, hopSec)
	require.Len(t, tl, 2)
	assert.Less(t, tl[0].End, tl[1].Start)
}

func TestEnergyDetector_DecodeFailure(t *testing.T) {
	det := NewEnergyDetector(Options{})
	_, err := det.Detect(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDetector)
}
