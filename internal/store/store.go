// Package store persists holidays in SQLite and reads timestamp series and
// writes calendar masks as Parquet files.
package store

import (
	"context"

	"workdays/internal/holiday"
)

// HolidayStore persists and retrieves holiday records.
type HolidayStore interface {
	// SaveHolidays upserts holidays, recording source as their origin.
	SaveHolidays(ctx context.Context, source string, hs []holiday.Holiday) error

	// ReplaceSource atomically replaces every holiday recorded for source.
	ReplaceSource(ctx context.Context, source string, hs []holiday.Holiday) error

	// ListHolidays returns holidays within [startYear, endYear] ordered by
	// date. Both years zero lists everything.
	ListHolidays(ctx context.Context, startYear, endYear int) ([]holiday.Holiday, error)
}

// SeriesStore reads timestamp series and writes the masks computed for them.
type SeriesStore interface {
	// ReadMillis returns the wall-clock milliseconds of every row in the file.
	ReadMillis(ctx context.Context, path string) ([]int64, error)

	// WriteMasks writes one row per timestamp with the three mask columns.
	WriteMasks(ctx context.Context, path string, rows []MaskRecord) error
}
