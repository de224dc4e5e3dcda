package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// Compile-time interface check.
var _ SeriesStore = (*ParquetStore)(nil)

// ParquetStore implements SeriesStore using Parquet files on disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// TimestampRecord is the schema read from series files. Other columns in the
// file are ignored. Timestamps are wall-clock milliseconds with no offset.
type TimestampRecord struct {
	Timestamp int64 `parquet:"timestamp,timestamp(millisecond)"`
}

// MaskRecord is the Parquet schema for mask output.
type MaskRecord struct {
	Timestamp       int64 `parquet:"timestamp,timestamp(millisecond)"`
	BusinessDay     bool  `parquet:"business_day"`
	InSession       bool  `parquet:"in_session"`
	BusinessSession bool  `parquet:"business_session"`
}

// ---------------------------------------------------------------------------
// SeriesStore implementation
// ---------------------------------------------------------------------------

// ReadMillis reads the timestamp column of a series file, resolving a
// relative path against DataDir.
func (s *ParquetStore) ReadMillis(_ context.Context, path string) ([]int64, error) {
	records, err := readParquetFile[TimestampRecord](s.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("reading series %s: %w", path, err)
	}
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.Timestamp
	}
	return out, nil
}

// WriteMasks writes mask rows to path, resolved against DataDir.
func (s *ParquetStore) WriteMasks(_ context.Context, path string, rows []MaskRecord) error {
	if err := writeParquetFile(s.resolve(path), rows); err != nil {
		return fmt.Errorf("writing masks %s: %w", path, err)
	}
	return nil
}

// WriteTimestamps writes a series file from wall-clock seconds.
func (s *ParquetStore) WriteTimestamps(_ context.Context, path string, ts []int64) error {
	records := make([]TimestampRecord, len(ts))
	for i, v := range ts {
		records[i] = TimestampRecord{Timestamp: v * 1000}
	}
	return writeParquetFile(s.resolve(path), records)
}

// MaskPath returns the output path for the masks of a series file.
// Layout: <dataDir>/masks/<base name of series>
func (s *ParquetStore) MaskPath(seriesPath string) string {
	return filepath.Join(s.DataDir, "masks", filepath.Base(seriesPath))
}

func (s *ParquetStore) resolve(path string) string {
	if filepath.IsAbs(path) || s.DataDir == "" {
		return path
	}
	return filepath.Join(s.DataDir, path)
}

// floorMillis converts milliseconds to whole seconds, rounding down.
func floorMillis(ms int64) int64 {
	sec := ms / 1000
	if ms%1000 < 0 {
		sec--
	}
	return sec
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
