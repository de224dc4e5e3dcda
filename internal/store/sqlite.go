package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"workdays/internal/holiday"
	"workdays/pkg/workdays"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ HolidayStore = (*SQLiteStore)(nil)
var _ holiday.Source = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS holidays (
	date       TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS holidays_source ON holidays(source);
`

// SQLiteStore implements HolidayStore backed by a SQLite database. It is
// also a holiday.Source so a synced registry can feed the engine directly.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creates the
// schema if needed and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating holiday schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// HolidayStore implementation
// ---------------------------------------------------------------------------

// SaveHolidays upserts holidays; a date already stored is overwritten.
func (s *SQLiteStore) SaveHolidays(ctx context.Context, source string, hs []holiday.Holiday) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertHolidays(ctx, tx, source, hs); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceSource deletes the holidays recorded for source and inserts hs in a
// single transaction.
func (s *SQLiteStore) ReplaceSource(ctx context.Context, source string, hs []holiday.Holiday) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM holidays WHERE source = ?`, source); err != nil {
		return fmt.Errorf("deleting holidays of %s: %w", source, err)
	}
	if err := insertHolidays(ctx, tx, source, hs); err != nil {
		return err
	}
	return tx.Commit()
}

func insertHolidays(ctx context.Context, tx *sql.Tx, source string, hs []holiday.Holiday) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO holidays (date, name, source, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			name = excluded.name, source = excluded.source, updated_at = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, h := range hs {
		if _, err := stmt.ExecContext(ctx, h.Date.String(), h.Name, source, now); err != nil {
			return fmt.Errorf("saving holiday %s: %w", h.Date, err)
		}
	}
	return nil
}

// ListHolidays returns holidays within [startYear, endYear] ordered by date.
func (s *SQLiteStore) ListHolidays(ctx context.Context, startYear, endYear int) ([]holiday.Holiday, error) {
	query := `SELECT date, name FROM holidays ORDER BY date`
	var args []any
	if startYear != 0 || endYear != 0 {
		query = `SELECT date, name FROM holidays WHERE date BETWEEN ? AND ? ORDER BY date`
		args = []any{
			fmt.Sprintf("%04d-01-01", startYear),
			fmt.Sprintf("%04d-12-31", endYear),
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []holiday.Holiday
	for rows.Next() {
		var date, name string
		if err := rows.Scan(&date, &name); err != nil {
			return nil, err
		}
		d, err := workdays.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("stored holiday: %w", err)
		}
		out = append(out, holiday.Holiday{Date: d, Name: name})
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// holiday.Source implementation
// ---------------------------------------------------------------------------

// Name returns the source identifier.
func (s *SQLiteStore) Name() string { return "sqlite" }

// Holidays is ListHolidays under the holiday.Source contract.
func (s *SQLiteStore) Holidays(ctx context.Context, startYear, endYear int) ([]holiday.Holiday, error) {
	return s.ListHolidays(ctx, startYear, endYear)
}
