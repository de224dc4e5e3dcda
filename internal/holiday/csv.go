package holiday

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"workdays/pkg/workdays"
)

var _ Source = (*CSVSource)(nil)

// ReadCSV parses "date,holiday_name" rows with YYYY-MM-DD dates. A leading
// header row is tolerated. The name column may be absent.
func ReadCSV(r io.Reader) ([]Holiday, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []Holiday
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading holiday csv: %w", err)
		}
		field := strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff"))
		if field == "" {
			continue
		}
		d, err := workdays.ParseDate(field)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("holiday csv line %d: %w", line, err)
		}
		h := Holiday{Date: d}
		if len(rec) > 1 {
			h.Name = strings.TrimSpace(rec[1])
		}
		out = append(out, h)
	}
}

// WriteCSV writes holidays as header-less "date,holiday_name" rows.
func WriteCSV(w io.Writer, hs []Holiday) error {
	cw := csv.NewWriter(w)
	for _, h := range hs {
		if err := cw.Write([]string{h.Date.String(), h.Name}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes holidays to path, creating parent directories. The
// file is replaced atomically.
func WriteCSVFile(path string, hs []Holiday) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".holidays-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, hs); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// CSVSource reads holidays from a local "date,holiday_name" file.
type CSVSource struct {
	Path string
}

// Name returns the source identifier.
func (s *CSVSource) Name() string { return "csv:" + s.Path }

// Holidays reads the file and returns the holidays within the year range.
func (s *CSVSource) Holidays(_ context.Context, startYear, endYear int) ([]Holiday, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hs, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return filterYears(hs, startYear, endYear), nil
}
