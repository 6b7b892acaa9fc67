package artifact

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogStore_Publish(t *testing.T) {
	tmpDir := t.TempDir()
	tablePath := filepath.Join(tmpDir, "complete_data.tsv")
	require.NoError(t, os.WriteFile(tablePath, []byte("path\tsentence\n"), 0o640))

	store := NewLogStore(nil)
	rec, err := store.Publish(context.Background(), Record{
		Name:      "data_loading",
		Path:      tablePath,
		SizeBytes: 15,
		Rows:      0,
	})
	require.NoError(t, err)
	assert.Empty(t, rec.URL)

	data, err := os.ReadFile(tablePath + ".artifact.json")
	require.NoError(t, err)

	var got Record
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "data_loading", got.Name)
	assert.Equal(t, tablePath, got.Path)
	assert.Equal(t, int64(15), got.SizeBytes)
}

func TestLogStore_Publish_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLogStore(nil).Publish(ctx, Record{Name: "x", Path: "y"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
