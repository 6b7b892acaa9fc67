// Package main provides the entry point for the voxprep CLI, which prepares
// speech corpora for TTS training: the trim command removes leading and
// trailing non-speech from recordings, the consolidate command merges corpus
// metadata tables into one deduplicated dataset.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/voxprep/voxprep/internal/bootstrap"
	"github.com/voxprep/voxprep/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		usage()
		return errors.New("missing command")
	}

	// Load .env if present; the environment itself wins on conflicts.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	switch args[0] {
	case "trim":
		return runTrim(args[1:])
	case "consolidate":
		return runConsolidate(args[1:])
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  voxprep trim -in DIR -out DIR [-ext .wav] [-min-on SECONDS] [-min-off SECONDS]
  voxprep consolidate -in DIR -out DIR

-in and -out fall back to VOXPREP_INPUT_DIR and VOXPREP_OUTPUT_DIR when omitted.`)
}

func runTrim(args []string) error {
	fs := flag.NewFlagSet("trim", flag.ExitOnError)
	inputDir := fs.String("in", "", "input directory tree of recordings")
	outputDir := fs.String("out", "", "output directory for trimmed recordings")
	ext := fs.String("ext", "", "recording file extension (overrides VOXPREP_EXT)")
	minOn := fs.Float64("min-on", -1, "discard speech segments shorter than this many seconds")
	minOff := fs.Float64("min-off", -1, "merge across non-speech gaps shorter than this many seconds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *inputDir == "" {
		*inputDir = cfg.InputDir
	}
	if *outputDir == "" {
		*outputDir = cfg.OutputDir
	}
	if *inputDir == "" || *outputDir == "" {
		fs.Usage()
		return errors.New("trim: -in and -out (or VOXPREP_INPUT_DIR/VOXPREP_OUTPUT_DIR) are required")
	}
	if *ext != "" {
		cfg.Extension = *ext
	}
	if *minOn >= 0 {
		cfg.MinDurationOn = *minOn
	}
	if *minOff >= 0 {
		cfg.MinDurationOff = *minOff
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting trim batch",
		slog.String("input", *inputDir),
		slog.String("output", *outputDir),
		slog.String("extension", cfg.Extension),
		slog.Float64("min_duration_on", cfg.MinDurationOn),
		slog.Float64("min_duration_off", cfg.MinDurationOff),
		slog.String("vad_engine", cfg.VADEngine),
	)

	deps, err := bootstrap.NewTrimDeps(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("close detector", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Per-file failures are logged inside the batch and do not fail the
	// run; only batch-level setup problems reach this error.
	if _, err := deps.Trimmer.Run(ctx, *inputDir, *outputDir); err != nil {
		return fmt.Errorf("trim batch: %w", err)
	}
	return nil
}

func runConsolidate(args []string) error {
	fs := flag.NewFlagSet("consolidate", flag.ExitOnError)
	inputDir := fs.String("in", "", "directory containing the corpus split TSV files")
	outputDir := fs.String("out", "", "directory to write the consolidated table to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *inputDir == "" {
		*inputDir = cfg.InputDir
	}
	if *outputDir == "" {
		*outputDir = cfg.OutputDir
	}
	if *inputDir == "" || *outputDir == "" {
		fs.Usage()
		return errors.New("consolidate: -in and -out (or VOXPREP_INPUT_DIR/VOXPREP_OUTPUT_DIR) are required")
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting metadata consolidation",
		slog.String("input", *inputDir),
		slog.String("output", *outputDir),
		slog.Bool("s3_enabled", cfg.S3Enabled()),
	)

	consolidator, err := bootstrap.NewConsolidator(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec, err := consolidator.Run(ctx, *inputDir, *outputDir)
	if err != nil {
		return fmt.Errorf("consolidate: %w", err)
	}

	logger.Info("consolidation complete",
		slog.String("path", rec.Path),
		slog.Int64("size_bytes", rec.SizeBytes),
		slog.Int("rows", rec.Rows),
	)
	return nil
}
