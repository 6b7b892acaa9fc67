package vad

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/voxprep/voxprep/internal/audio"
)

// Analysis window geometry for the energy detector.
const (
	energyWindowSec = 0.025
	energyHopSec    = 0.010

	// noiseFloorPercentile picks the frame-RMS percentile treated as the
	// recording's noise floor.
	noiseFloorPercentile = 20

	// enterRatio scales the noise floor into the speech-entry threshold;
	// exitRatio derives the lower exit threshold for hysteresis.
	enterRatio = 1.6
	exitRatio  = 0.6

	// minEnterThreshold bounds the entry threshold from below so that
	// digitally silent recordings never trigger on rounding noise.
	minEnterThreshold = 0.01
)

// EnergyDetector is a pure-Go detector based on windowed RMS energy with
// hysteresis. It works at any sample rate, needs no model file and is fully
// deterministic, which makes it the default engine.
type EnergyDetector struct {
	opts Options
}

// NewEnergyDetector creates an energy detector with the given post-processing
// options.
func NewEnergyDetector(opts Options) *EnergyDetector {
	return &EnergyDetector{opts: opts}
}

// Detect implements Detector.
func (d *EnergyDetector) Detect(ctx context.Context, path string) (Timeline, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrDetector, ctx.Err())
	default:
	}

	buf, err := audio.Decode(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetector, err)
	}

	rms := frameRMS(buf.Data, buf.SampleRate, energyWindowSec, energyHopSec)
	if len(rms) == 0 {
		return nil, nil
	}

	enter := percentile(rms, noiseFloorPercentile) * enterRatio
	if enter < minEnterThreshold {
		enter = minEnterThreshold
	}
	exit := enter * exitRatio

	tl := maskToTimeline(rms, enter, exit, energyWindowSec, energyHopSec)
	return postProcess(tl, d.opts), nil
}

// maskToTimeline runs the hysteresis state machine over frame energies and
// emits speech intervals. A frame enters speech at the enter threshold and
// leaves it only below the exit threshold. Intervals end a full window past
// their last frame, so an interval can reach into the next one when only a
// hop or two separates them; such neighbors are merged to keep the timeline
// pairwise non-overlapping.
func maskToTimeline(rms []float64, enter, exit, winSec, hopSec float64) Timeline {
	var tl Timeline
	inSpeech := false
	var start float64

	emit := func(iv Interval) {
		if n := len(tl); n > 0 && tl[n-1].End >= iv.Start {
			tl[n-1].End = iv.End
			return
		}
		tl = append(tl, iv)
	}

	for i, level := range rms {
		t := float64(i) * hopSec
		if inSpeech {
			if level < exit {
				emit(Interval{Start: start, End: t + winSec})
				inSpeech = false
			}
		} else {
			if level >= enter {
				start = t
				inSpeech = true
			}
		}
	}
	if inSpeech {
		end := float64(len(rms)-1)*hopSec + winSec
		emit(Interval{Start: start, End: end})
	}

	return tl
}

// frameRMS computes the RMS energy of overlapping analysis windows.
func frameRMS(data []float64, rate int, winSec, hopSec float64) []float64 {
	win := int(winSec * float64(rate))
	hop := int(hopSec * float64(rate))
	if win <= 0 || hop <= 0 || len(data) < win {
		return nil
	}

	out := make([]float64, 0, 1+len(data)/hop)
	for i := 0; i+win <= len(data); i += hop {
		var sum float64
		for j := 0; j < win; j++ {
			sum += data[i+j] * data[i+j]
		}
		out = append(out, math.Sqrt(sum/float64(win)))
	}
	return out
}

// percentile returns the p-th percentile of xs by nearest-rank.
func percentile(xs []float64, p int) float64 {
	if len(xs) == 0 {
		return 0
	}
	tmp := append([]float64(nil), xs...)
	sort.Float64s(tmp)

	idx := int(math.Round(float64(p) / 100.0 * float64(len(tmp)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(tmp) {
		idx = len(tmp) - 1
	}
	return tmp[idx]
}

// Verify interface implementation at compile time.
var _ Detector = (*EnergyDetector)(nil)
