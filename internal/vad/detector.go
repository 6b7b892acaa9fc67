// Package vad provides the speech activity detection boundary.
// It defines the Detector port consumed by the trimming pipeline and two
// adapters: a pure-Go energy detector and a Silero ONNX detector.
package vad

import (
	"context"
	"errors"
)

// ErrDetector is returned when the underlying detection capability fails
// for a file. Callers classify failures with errors.Is.
var ErrDetector = errors.New("vad: detection failed")

// Options configures timeline post-processing shared by all detectors.
type Options struct {
	// MinDurationOn discards detected speech segments shorter than this
	// many seconds. Zero keeps all segments.
	MinDurationOn float64 `validate:"gte=0"`

	// MinDurationOff merges speech segments separated by non-speech gaps
	// shorter than this many seconds. Zero merges nothing.
	MinDurationOff float64 `validate:"gte=0"`
}

// Detector locates speech activity in a recording.
// Implementations are initialized once per batch and reused across files;
// initialization is assumed expensive, detection is not.
type Detector interface {
	// Detect returns the speech timeline of the file at path: a sorted,
	// pairwise non-overlapping sequence of [start, end) intervals in
	// seconds. An empty timeline means no speech was found and is not an
	// error. Failures wrap ErrDetector.
	Detect(ctx context.Context, path string) (Timeline, error)
}

// postProcess applies the threshold options to a raw timeline: gaps shorter
// than MinDurationOff are filled first, then segments shorter than
// MinDurationOn are dropped. The order matches the boundary behavior of the
// segmentation pipelines this port abstracts over.
func postProcess(tl Timeline, opts Options) Timeline {
	return tl.FillGaps(opts.MinDurationOff).DropShort(opts.MinDurationOn)
}
