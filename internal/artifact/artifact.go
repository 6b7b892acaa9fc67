// Package artifact provides publication of dataset artifacts produced by the
// metadata consolidator. It defines the Store port and implementations for
// local recording and S3 upload.
package artifact

import "context"

// Record describes one published dataset artifact.
type Record struct {
	// Name identifies the producing step, e.g. "data_loading".
	Name string `json:"name"`
	// Path is the local path of the artifact file.
	Path string `json:"file_path"`
	// SizeBytes is the artifact file size.
	SizeBytes int64 `json:"size_bytes"`
	// Rows is the number of data rows in the artifact.
	Rows int `json:"num_rows"`
	// URL is the remote location of the artifact, when uploaded.
	URL string `json:"url,omitempty"`
}

// Store publishes artifact records. Implementations must at minimum make the
// record observable; they may additionally copy the artifact elsewhere.
type Store interface {
	// Publish records the artifact and returns the final record,
	// including any remote URL assigned during publication.
	Publish(ctx context.Context, rec Record) (Record, error)
}
