// Package dataset consolidates the tabular metadata of a speech corpus: the
// fixed set of split tables is merged into one deduplicated TSV and the
// result is published as a dataset artifact.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/voxprep/voxprep/internal/artifact"
)

// The split tables expected in the input directory, merged in this order.
var splitFiles = []string{"train.tsv", "test.tsv", "dev.tsv", "validated.tsv", "other.tsv"}

const (
	// durationsFile optionally maps clip paths to durations.
	durationsFile = "clip_durations.tsv"
	// outputFile is the name of the consolidated table.
	outputFile = "complete_data.tsv"

	// Column names used during consolidation.
	pathColumn     = "path"
	sourceColumn   = "source_file"
	durationColumn = "duration_ms"

	artifactName = "data_loading"
)

// ErrNoTables is returned when none of the expected split tables can be
// read. Unlike the trimming batch, this is fatal for a consolidate run.
var ErrNoTables = errors.New("dataset: no input tables found")

// table is one parsed TSV: a header and its data rows.
type table struct {
	header []string
	rows   [][]string
}

// Consolidator merges corpus split tables into a single deduplicated
// dataset and publishes it through an artifact store.
type Consolidator struct {
	store  artifact.Store
	logger *slog.Logger
}

// NewConsolidator creates a Consolidator.
func NewConsolidator(store artifact.Store, logger *slog.Logger) *Consolidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consolidator{
		store:  store,
		logger: logger,
	}
}

// Run reads the split tables from inputDir, concatenates them with a
// source_file column, left-joins clip durations when available, drops
// duplicate rows by path (first occurrence wins) and writes
// complete_data.tsv to outputDir. The published artifact record is returned.
func (c *Consolidator) Run(ctx context.Context, inputDir, outputDir string) (artifact.Record, error) {
	select {
	case <-ctx.Done():
		return artifact.Record{}, fmt.Errorf("dataset: %w", ctx.Err())
	default:
	}

	combined, err := c.loadSplits(inputDir)
	if err != nil {
		return artifact.Record{}, err
	}

	c.joinDurations(inputDir, combined)

	before := len(combined.rows)
	c.dropDuplicates(combined)
	c.logger.Info("dropped duplicate rows",
		slog.Int("dropped", before-len(combined.rows)),
		slog.Int("rows", len(combined.rows)),
	)

	outPath := filepath.Join(outputDir, outputFile)
	if err := writeTable(outPath, combined); err != nil {
		return artifact.Record{}, err
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return artifact.Record{}, fmt.Errorf("dataset: stat output: %w", err)
	}

	rec := artifact.Record{
		Name:      artifactName,
		Path:      outPath,
		SizeBytes: info.Size(),
		Rows:      len(combined.rows),
	}
	rec, err = c.store.Publish(ctx, rec)
	if err != nil {
		return rec, fmt.Errorf("dataset: publish artifact: %w", err)
	}

	return rec, nil
}

// loadSplits reads every available split table and concatenates them onto a
// shared header, tagging each row with its source table.
func (c *Consolidator) loadSplits(inputDir string) (*table, error) {
	var combined *table

	for _, name := range splitFiles {
		path := filepath.Join(inputDir, name)
		tbl, err := readTable(path)
		if err != nil {
			if os.IsNotExist(err) {
				c.logger.Warn("split table not found, skipping",
					slog.String("table", name),
				)
			} else {
				c.logger.Warn("split table unreadable, skipping",
					slog.String("table", name),
					slog.String("error", err.Error()),
				)
			}
			continue
		}

		c.logger.Info("read split table",
			slog.String("table", name),
			slog.Int("rows", len(tbl.rows)),
		)

		if combined == nil {
			combined = &table{header: append(tbl.header, sourceColumn)}
		}
		appendRows(combined, tbl, name)
	}

	if combined == nil {
		return nil, ErrNoTables
	}
	return combined, nil
}

// appendRows maps src's columns onto the combined header by name and adds
// the source_file tag. Columns absent from src are left empty.
func appendRows(combined *table, src *table, sourceName string) {
	index := make(map[string]int, len(src.header))
	for i, col := range src.header {
		index[col] = i
	}

	width := len(combined.header)
	for _, row := range src.rows {
		out := make([]string, width)
		for i, col := range combined.header[:width-1] {
			if j, ok := index[col]; ok && j < len(row) {
				out[i] = row[j]
			}
		}
		out[width-1] = sourceName
		combined.rows = append(combined.rows, out)
	}
}

// joinDurations left-joins clip_durations.tsv on the path column. The
// durations table's columns are positional: clip path, then duration.
func (c *Consolidator) joinDurations(inputDir string, combined *table) {
	pathIdx := columnIndex(combined.header, pathColumn)
	if pathIdx < 0 {
		c.logger.Warn("no path column, skipping durations merge")
		return
	}

	tbl, err := readTable(filepath.Join(inputDir, durationsFile))
	if err != nil {
		c.logger.Warn("clip durations not available, proceeding without",
			slog.String("error", err.Error()),
		)
		return
	}

	durations := make(map[string]string, len(tbl.rows))
	for _, row := range tbl.rows {
		if len(row) >= 2 {
			durations[row[0]] = row[1]
		}
	}

	combined.header = append(combined.header, durationColumn)
	for i, row := range combined.rows {
		combined.rows[i] = append(row, durations[row[pathIdx]])
	}

	c.logger.Info("merged clip durations",
		slog.Int("durations", len(durations)),
	)
}

// dropDuplicates removes rows whose path was already seen, keeping the
// first occurrence. Without a path column the table is left unchanged.
func (c *Consolidator) dropDuplicates(combined *table) {
	pathIdx := columnIndex(combined.header, pathColumn)
	if pathIdx < 0 {
		return
	}

	seen := make(map[string]struct{}, len(combined.rows))
	kept := combined.rows[:0]
	for _, row := range combined.rows {
		key := row[pathIdx]
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	combined.rows = kept
}

func columnIndex(header []string, name string) int {
	for i, col := range header {
		if col == name {
			return i
		}
	}
	return -1
}

// readTable parses a TSV file into a header and data rows.
func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse %s: empty table", path)
	}

	return &table{
		header: records[0],
		rows:   records[1:],
	}, nil
}

// writeTable writes the table as TSV, creating the output directory first.
func writeTable(path string, tbl *table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("dataset: create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(tbl.header); err != nil {
		_ = f.Close()
		return fmt.Errorf("dataset: write header: %w", err)
	}
	if err := w.WriteAll(tbl.rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("dataset: write rows: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("dataset: flush %s: %w", path, err)
	}
	return f.Close()
}
