package dataset

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxprep/voxprep/internal/artifact"
)

func writeTSV(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o640))
}

func readTSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestConsolidator_Run(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	writeTSV(t, filepath.Join(inDir, "train.tsv"),
		"client_id\tpath\tsentence",
		"c1\tclips/a.wav\thello there",
		"c2\tclips/b.wav\tgood morning",
	)
	writeTSV(t, filepath.Join(inDir, "dev.tsv"),
		"client_id\tpath\tsentence",
		"c3\tclips/c.wav\tthank you",
		"c1\tclips/a.wav\thello there", // duplicate path, must be dropped
	)
	writeTSV(t, filepath.Join(inDir, "clip_durations.tsv"),
		"clip\tduration[ms]",
		"clips/a.wav\t1200",
		"clips/c.wav\t900",
	)

	c := NewConsolidator(artifact.NewLogStore(nil), nil)
	rec, err := c.Run(context.Background(), inDir, outDir)
	require.NoError(t, err)

	assert.Equal(t, "data_loading", rec.Name)
	assert.Equal(t, 3, rec.Rows)
	assert.Positive(t, rec.SizeBytes)

	records := readTSV(t, filepath.Join(outDir, "complete_data.tsv"))
	require.Len(t, records, 4) // header + 3 rows

	assert.Equal(t, []string{"client_id", "path", "sentence", "source_file", "duration_ms"}, records[0])
	assert.Equal(t, []string{"c1", "clips/a.wav", "hello there", "train.tsv", "1200"}, records[1])
	assert.Equal(t, []string{"c2", "clips/b.wav", "good morning", "train.tsv", ""}, records[2])
	assert.Equal(t, []string{"c3", "clips/c.wav", "thank you", "dev.tsv", "900"}, records[3])
}

func TestConsolidator_MissingOptionalTables(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	// Only one split table, no durations.
	writeTSV(t, filepath.Join(inDir, "validated.tsv"),
		"client_id\tpath\tsentence",
		"c1\tclips/a.wav\thello",
	)

	c := NewConsolidator(artifact.NewLogStore(nil), nil)
	rec, err := c.Run(context.Background(), inDir, outDir)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Rows)

	records := readTSV(t, filepath.Join(outDir, "complete_data.tsv"))
	assert.Equal(t, []string{"client_id", "path", "sentence", "source_file"}, records[0])
}

func TestConsolidator_NoTablesIsFatal(t *testing.T) {
	c := NewConsolidator(artifact.NewLogStore(nil), nil)
	_, err := c.Run(context.Background(), t.TempDir(), t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoTables)
}

func TestConsolidator_PublishesSidecar(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	writeTSV(t, filepath.Join(inDir, "other.tsv"),
		"client_id\tpath\tsentence",
		"c9\tclips/z.wav\tbye",
	)

	c := NewConsolidator(artifact.NewLogStore(nil), nil)
	_, err := c.Run(context.Background(), inDir, outDir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(outDir, "complete_data.tsv.artifact.json"))
}
