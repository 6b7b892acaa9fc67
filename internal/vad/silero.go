package vad

import (
	"context"
	"fmt"

	"github.com/streamer45/silero-vad-go/speech"

	"github.com/voxprep/voxprep/internal/audio"
)

// sileroSampleRate is the sample rate the Silero model is fed at. Files at
// other rates are downsampled for detection only; the export path always
// keeps the native rate.
const sileroSampleRate = 16000

// SileroDetector runs the Silero VAD ONNX model through silero-vad-go.
// The underlying speech.Detector is created once and reused for every file
// in the batch; Close must be called when the batch is done.
type SileroDetector struct {
	det  *speech.Detector
	opts Options
}

// NewSileroDetector loads the Silero model at modelPath. threshold is the
// speech probability above which a frame counts as speech.
func NewSileroDetector(modelPath string, threshold float32, opts Options) (*SileroDetector, error) {
	det, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:  modelPath,
		SampleRate: sileroSampleRate,
		Threshold:  threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("vad: create silero detector: %w", err)
	}

	return &SileroDetector{
		det:  det,
		opts: opts,
	}, nil
}

// Detect implements Detector.
func (d *SileroDetector) Detect(ctx context.Context, path string) (Timeline, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrDetector, ctx.Err())
	default:
	}

	buf, err := audio.Decode(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetector, err)
	}

	samples := resampleLinear(buf.Data, buf.SampleRate, sileroSampleRate)
	if len(samples) == 0 {
		return nil, nil
	}

	// The model keeps recurrent state between calls; clear it so files in
	// a batch do not influence each other.
	if err := d.det.Reset(); err != nil {
		return nil, fmt.Errorf("%w: reset detector: %v", ErrDetector, err)
	}

	segments, err := d.det.Detect(samples)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetector, err)
	}

	tl := make(Timeline, 0, len(segments))
	for _, seg := range segments {
		end := seg.SpeechEndAt
		if end <= 0 {
			// Open-ended final segment: speech ran to the end of the file.
			end = buf.Duration()
		}
		if end <= seg.SpeechStartAt {
			continue
		}
		tl = append(tl, Interval{Start: seg.SpeechStartAt, End: end})
	}

	return postProcess(tl, d.opts), nil
}

// Close releases the ONNX session.
func (d *SileroDetector) Close() error {
	if err := d.det.Destroy(); err != nil {
		return fmt.Errorf("vad: destroy silero detector: %w", err)
	}
	return nil
}

// resampleLinear converts mono float64 samples to float32 at dstRate using
// linear interpolation. When the rates match it only converts the sample
// type.
func resampleLinear(in []float64, srcRate, dstRate int) []float32 {
	if len(in) == 0 || srcRate <= 0 || dstRate <= 0 {
		return nil
	}

	if srcRate == dstRate {
		out := make([]float32, len(in))
		for i, s := range in {
			out[i] = float32(s)
		}
		return out
	}

	ratio := float64(srcRate) / float64(dstRate)
	outSamples := int(float64(len(in)) / ratio)
	if outSamples == 0 {
		return nil
	}

	out := make([]float32, outSamples)
	for i := 0; i < outSamples; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := in[srcIdx]
		s1 := s0
		if srcIdx+1 < len(in) {
			s1 = in[srcIdx+1]
		}

		out[i] = float32(s0 + frac*(s1-s0))
	}
	return out
}

// Verify interface implementation at compile time.
var _ Detector = (*SileroDetector)(nil)
