// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrSileroModelRequired is returned when the silero engine is selected
	// without a model path.
	ErrSileroModelRequired = errors.New("config: VOXPREP_SILERO_MODEL is required for the silero engine")
	// ErrUnknownVADEngine is returned for an unrecognized VOXPREP_VAD_ENGINE value.
	ErrUnknownVADEngine = errors.New("config: unknown VAD engine")
)

// Supported VAD engines.
const (
	EngineEnergy = "energy"
	EngineSilero = "silero"
)

// Config holds all configuration for the application.
type Config struct {
	// Batch directories. CLI flags take precedence when provided.
	InputDir  string `env:"VOXPREP_INPUT_DIR" json:"input_dir,omitempty"`
	OutputDir string `env:"VOXPREP_OUTPUT_DIR" json:"output_dir,omitempty"`

	// Trimming settings
	Extension      string  `env:"VOXPREP_EXT, default=.wav" json:"extension"`
	MinDurationOn  float64 `env:"VOXPREP_MIN_DURATION_ON, default=0" json:"min_duration_on"`
	MinDurationOff float64 `env:"VOXPREP_MIN_DURATION_OFF, default=0" json:"min_duration_off"`

	// Detector settings
	VADEngine       string  `env:"VOXPREP_VAD_ENGINE, default=energy" json:"vad_engine"`
	SileroModelPath string  `env:"VOXPREP_SILERO_MODEL" json:"silero_model_path,omitempty"`
	SileroThreshold float64 `env:"VOXPREP_SILERO_THRESHOLD, default=0.5" json:"silero_threshold"`

	// Optional S3 settings for artifact publication
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch strings.ToLower(c.VADEngine) {
	case EngineEnergy:
	case EngineSilero:
		if c.SileroModelPath == "" {
			return ErrSileroModelRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownVADEngine, c.VADEngine)
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{InputDir: %s, OutputDir: %s, Extension: %s, MinDurationOn: %g, MinDurationOff: %g, VADEngine: %s, SileroModelPath: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.InputDir,
		c.OutputDir,
		c.Extension,
		c.MinDurationOn,
		c.MinDurationOff,
		c.VADEngine,
		c.SileroModelPath,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
