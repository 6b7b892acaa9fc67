// Package bootstrap provides dependency initialization for the voxprep CLI.
package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/voxprep/voxprep/internal/artifact"
	"github.com/voxprep/voxprep/internal/config"
	"github.com/voxprep/voxprep/internal/dataset"
	"github.com/voxprep/voxprep/internal/pipeline"
	"github.com/voxprep/voxprep/internal/vad"
)

// TrimDeps holds the initialized collaborators for the trim command.
type TrimDeps struct {
	Trimmer *pipeline.Trimmer

	detector vad.Detector
}

// Close releases detector resources. Safe to call once after the batch.
func (d *TrimDeps) Close() error {
	if closer, ok := d.detector.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// NewTrimDeps initializes the trimming pipeline. A failure here is a
// batch-level setup failure and aborts before any file is processed.
func NewTrimDeps(cfg *config.Config, logger *slog.Logger) (*TrimDeps, error) {
	detector, err := initDetector(cfg, logger)
	if err != nil {
		return nil, err
	}

	trimmer, err := pipeline.NewTrimmer(detector, logger, pipeline.Options{
		Extension: cfg.Extension,
	})
	if err != nil {
		return nil, err
	}

	return &TrimDeps{
		Trimmer:  trimmer,
		detector: detector,
	}, nil
}

// NewConsolidator initializes the metadata consolidator with the configured
// artifact store.
func NewConsolidator(cfg *config.Config, logger *slog.Logger) (*dataset.Consolidator, error) {
	store, err := initArtifactStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	return dataset.NewConsolidator(store, logger), nil
}

// initDetector creates the configured speech activity detector. The detector
// is built once per run and reused for every file.
func initDetector(cfg *config.Config, logger *slog.Logger) (vad.Detector, error) {
	opts := vad.Options{
		MinDurationOn:  cfg.MinDurationOn,
		MinDurationOff: cfg.MinDurationOff,
	}
	if err := validator.New().Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid detector options: %w", err)
	}

	switch strings.ToLower(cfg.VADEngine) {
	case config.EngineSilero:
		det, err := vad.NewSileroDetector(cfg.SileroModelPath, float32(cfg.SileroThreshold), opts)
		if err != nil {
			return nil, fmt.Errorf("initialize silero detector: %w", err)
		}
		logger.Info("silero detector configured",
			slog.String("model", cfg.SileroModelPath),
			slog.Float64("threshold", cfg.SileroThreshold),
		)
		return det, nil
	case config.EngineEnergy:
		logger.Info("energy detector configured",
			slog.Float64("min_duration_on", cfg.MinDurationOn),
			slog.Float64("min_duration_off", cfg.MinDurationOff),
		)
		return vad.NewEnergyDetector(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownVADEngine, cfg.VADEngine)
	}
}

// initArtifactStore creates the artifact backend based on configuration.
func initArtifactStore(cfg *config.Config, logger *slog.Logger) (artifact.Store, error) {
	if cfg.S3Enabled() {
		s3Cfg := artifact.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := artifact.NewS3Store(logger, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 artifact store: %w", err)
		}
		logger.Info("S3 artifact store configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	return artifact.NewLogStore(logger), nil
}
