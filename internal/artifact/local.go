package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// LogStore publishes artifacts by logging the record and writing a JSON
// sidecar next to the artifact file. It is the default store when no remote
// backend is configured.
type LogStore struct {
	logger *slog.Logger
}

// NewLogStore creates a LogStore.
func NewLogStore(logger *slog.Logger) *LogStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogStore{logger: logger}
}

// Publish implements Store.
func (s *LogStore) Publish(ctx context.Context, rec Record) (Record, error) {
	select {
	case <-ctx.Done():
		return rec, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return rec, fmt.Errorf("marshal artifact record: %w", err)
	}

	sidecar := rec.Path + ".artifact.json"
	if err := os.WriteFile(sidecar, data, 0o640); err != nil {
		return rec, fmt.Errorf("write artifact sidecar: %w", err)
	}

	s.logger.Info("artifact published",
		slog.String("name", rec.Name),
		slog.String("path", rec.Path),
		slog.Int64("size_bytes", rec.SizeBytes),
		slog.Int("rows", rec.Rows),
	)

	return rec, nil
}

// Verify interface implementation at compile time.
var _ Store = (*LogStore)(nil)
