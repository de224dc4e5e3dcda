// Package holiday acquires holiday dates for the calendar engine from files,
// databases, remote services and rule sets.
package holiday

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"

	"workdays/pkg/workdays"
)

// Holiday is a named non-business date.
type Holiday struct {
	Date workdays.Date
	Name string
}

// Source is the interface implemented by every holiday provider.
type Source interface {
	// Name returns the source identifier used in logs.
	Name() string
	// Holidays returns the holidays in [startYear-01-01, endYear-12-31]. Both
	// years zero means every holiday the source knows of.
	Holidays(ctx context.Context, startYear, endYear int) ([]Holiday, error)
}

// Dates projects holidays onto their dates.
func Dates(hs []Holiday) []workdays.Date {
	out := make([]workdays.Date, len(hs))
	for i, h := range hs {
		out[i] = h.Date
	}
	return out
}

// Sort orders holidays by date.
func Sort(hs []Holiday) {
	slices.SortFunc(hs, func(a, b Holiday) int { return a.Date.Compare(b.Date) })
}

func inYears(d workdays.Date, startYear, endYear int) bool {
	if startYear == 0 && endYear == 0 {
		return true
	}
	return d.Year >= startYear && d.Year <= endYear
}

func filterYears(hs []Holiday, startYear, endYear int) []Holiday {
	out := hs[:0]
	for _, h := range hs {
		if inYears(h.Date, startYear, endYear) {
			out = append(out, h)
		}
	}
	return out
}

// Merge collects holidays from sources in order. When two sources list the
// same date the name from the earlier source is kept. Sources whose backing
// file does not exist are skipped with a warning. The result is sorted.
func Merge(ctx context.Context, log *slog.Logger, sources []Source, startYear, endYear int) ([]Holiday, error) {
	if log == nil {
		log = slog.Default()
	}
	seen := make(map[workdays.Date]bool)
	var out []Holiday
	for _, src := range sources {
		hs, err := src.Holidays(ctx, startYear, endYear)
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("holiday source missing, skipping", "source", src.Name(), "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("holiday source %s: %w", src.Name(), err)
		}
		added := 0
		for _, h := range hs {
			if seen[h.Date] {
				continue
			}
			seen[h.Date] = true
			out = append(out, h)
			added++
		}
		log.Debug("holiday source loaded", "source", src.Name(), "holidays", len(hs), "added", added)
	}
	Sort(out)
	return out, nil
}

// Static is a Source over a fixed in-memory list.
type Static struct {
	Label string
	List  []Holiday
}

// Name returns the source identifier.
func (s *Static) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

// Holidays returns the listed holidays within the year range.
func (s *Static) Holidays(_ context.Context, startYear, endYear int) ([]Holiday, error) {
	return filterYears(slices.Clone(s.List), startYear, endYear), nil
}
