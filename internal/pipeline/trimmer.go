// Package pipeline provides the batch orchestrator that walks a recording
// tree, trims leading and trailing non-speech from every matching file and
// mirrors the results into an output tree. A failure on one file never stops
// the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/voxprep/voxprep/internal/audio"
	"github.com/voxprep/voxprep/internal/trim"
	"github.com/voxprep/voxprep/internal/vad"
)

// Stage identifies where in the per-file state machine an error occurred.
type Stage string

// Per-file processing stages.
const (
	StageDiscover Stage = "discover"
	StageDecode   Stage = "decode"
	StageDetect   Stage = "detect"
	StageResolve  Stage = "resolve"
	StageSlice    Stage = "slice"
	StageExport   Stage = "export"
)

// FileError records a per-file failure together with the stage it happened
// in. It is collected in the batch summary instead of aborting the run.
type FileError struct {
	Path  string
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FileError) Unwrap() error {
	return e.Err
}

// Options configures a trimming batch.
type Options struct {
	// Extension selects which files qualify for processing, matched
	// case-insensitively against the file name's extension.
	Extension string `validate:"required,startswith=."`
}

// DefaultOptions returns the default batch options.
func DefaultOptions() Options {
	return Options{Extension: ".wav"}
}

// Summary aggregates the outcome of one batch run.
type Summary struct {
	// Scanned is the number of qualifying files discovered.
	Scanned int
	// Trimmed is the number of output files written.
	Trimmed int
	// NoSpeech is the number of files skipped because no speech was found.
	NoSpeech int
	// Failures lists every per-file error, in walk order.
	Failures []FileError
}

// Trimmer orchestrates silence trimming over a directory tree. The detector
// is injected once and reused for every file; detector initialization is
// assumed expensive.
type Trimmer struct {
	detector vad.Detector
	logger   *slog.Logger
	opts     Options
}

// NewTrimmer creates a Trimmer. It returns an error when the options are
// invalid; that is a batch-level setup failure.
func NewTrimmer(detector vad.Detector, logger *slog.Logger, opts Options) (*Trimmer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := validator.New().Struct(opts); err != nil {
		return nil, fmt.Errorf("pipeline: invalid options: %w", err)
	}
	return &Trimmer{
		detector: detector,
		logger:   logger,
		opts:     opts,
	}, nil
}

// Run walks inputDir, processes every qualifying file and writes trimmed
// clips to the mirrored path under outputDir. Per-file errors are collected
// in the summary; Run itself fails only on batch-level problems such as an
// unreadable input root or cancellation.
func (t *Trimmer) Run(ctx context.Context, inputDir, outputDir string) (Summary, error) {
	var summary Summary

	walkErr := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			if path == inputDir {
				return fmt.Errorf("walk input root: %w", err)
			}
			t.recordFailure(&summary, FileError{Path: path, Stage: StageDiscover, Err: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), t.opts.Extension) {
			return nil
		}

		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			t.recordFailure(&summary, FileError{Path: path, Stage: StageDiscover, Err: err})
			return nil
		}
		outPath := filepath.Join(outputDir, rel)

		summary.Scanned++
		t.processFile(ctx, path, outPath, &summary)
		return nil
	})
	if walkErr != nil {
		return summary, fmt.Errorf("pipeline: %w", walkErr)
	}

	t.logger.Info("batch finished",
		slog.Int("scanned", summary.Scanned),
		slog.Int("trimmed", summary.Trimmed),
		slog.Int("no_speech", summary.NoSpeech),
		slog.Int("failed", len(summary.Failures)),
	)

	return summary, nil
}

// processFile runs one file through decode → detect → resolve → slice →
// export and records the terminal state in the summary. Every error is
// caught here, at the file boundary.
func (t *Trimmer) processFile(ctx context.Context, inPath, outPath string, summary *Summary) {
	buf, err := audio.Decode(inPath)
	if err != nil {
		t.recordFailure(summary, FileError{Path: inPath, Stage: StageDecode, Err: err})
		return
	}

	tl, err := t.detector.Detect(ctx, inPath)
	if err != nil {
		t.recordFailure(summary, FileError{Path: inPath, Stage: StageDetect, Err: err})
		return
	}

	window, err := trim.Resolve(tl)
	if err != nil {
		if errors.Is(err, trim.ErrNoSpeech) {
			summary.NoSpeech++
			t.logger.Info("no speech detected, skipping",
				slog.String("path", inPath),
				slog.Int("file", summary.Scanned),
			)
			return
		}
		t.recordFailure(summary, FileError{Path: inPath, Stage: StageResolve, Err: err})
		return
	}
	window = window.Clamp(buf.Duration())

	sliced, err := audio.Slice(audio.ToFixedPoint(buf), window.Start, window.End)
	if err != nil {
		t.recordFailure(summary, FileError{Path: inPath, Stage: StageSlice, Err: err})
		return
	}

	if err := audio.Export(sliced, outPath); err != nil {
		t.recordFailure(summary, FileError{Path: inPath, Stage: StageExport, Err: err})
		return
	}

	summary.Trimmed++
	t.logger.Info("trimmed",
		slog.String("path", inPath),
		slog.String("output", outPath),
		slog.Float64("start", window.Start),
		slog.Float64("end", window.End),
		slog.Int("file", summary.Scanned),
	)
}

// recordFailure logs a per-file error and adds it to the summary.
func (t *Trimmer) recordFailure(summary *Summary, fe FileError) {
	summary.Failures = append(summary.Failures, fe)
	t.logger.Error("file failed",
		slog.String("path", fe.Path),
		slog.String("stage", string(fe.Stage)),
		slog.String("error", fe.Err.Error()),
	)
}
