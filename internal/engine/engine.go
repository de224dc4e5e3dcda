// Package engine owns the current calendar snapshot. It resolves holiday
// sources, rebuilds the calendar when an input changes and publishes the
// result atomically; readers never lock.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"workdays/internal/holiday"
	"workdays/pkg/workdays"
)

// ErrNotLoaded is returned by Calendar before the first successful Reload.
var ErrNotLoaded = errors.New("calendar not loaded")

// Engine holds the calendar inputs and the snapshot built from them.
type Engine struct {
	log *slog.Logger

	// mu serialises writers; readers go through current.
	mu       sync.Mutex
	cfg      workdays.Config
	sources  []holiday.Source
	fetched  []holiday.Holiday
	added    []holiday.Holiday
	loadedAt time.Time

	current atomic.Pointer[workdays.Calendar]
}

// New creates an Engine over the given base configuration. Holidays in base
// are kept and merged with those fetched from sources.
func New(log *slog.Logger, base workdays.Config, sources []holiday.Source) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		log:     log.With("component", "engine"),
		cfg:     base,
		sources: slices.Clone(sources),
	}
	for _, d := range base.Holidays {
		e.added = append(e.added, holiday.Holiday{Date: d})
	}
	return e
}

// Calendar returns the current snapshot. The snapshot never changes; a later
// rebuild publishes a new one.
func (e *Engine) Calendar() (*workdays.Calendar, error) {
	c := e.current.Load()
	if c == nil {
		return nil, ErrNotLoaded
	}
	return c, nil
}

// LoadedAt reports when the holiday sources were last fetched.
func (e *Engine) LoadedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadedAt
}

// Reload fetches holidays from every source and publishes a new snapshot.
// On failure the previous snapshot stays in place.
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reloadLocked(ctx, e.cfg)
}

func (e *Engine) reloadLocked(ctx context.Context, cfg workdays.Config) error {
	start := time.Now()
	fetched, err := holiday.Merge(ctx, e.log, e.sources, cfg.HolidayStartYear, cfg.HolidayEndYear)
	if err != nil {
		return fmt.Errorf("loading holidays: %w", err)
	}
	if err := e.publishLocked(cfg, fetched, e.added); err != nil {
		return err
	}
	e.loadedAt = time.Now()
	e.log.Info("calendar reloaded",
		"holidays", len(fetched)+len(e.added),
		"start_year", cfg.HolidayStartYear,
		"end_year", cfg.HolidayEndYear,
		"elapsed", time.Since(start))
	return nil
}

// publishLocked builds a snapshot and, only if that succeeds, commits the
// inputs it was built from.
func (e *Engine) publishLocked(cfg workdays.Config, fetched, added []holiday.Holiday) error {
	next := cfg
	next.Holidays = append(holiday.Dates(fetched), holiday.Dates(added)...)
	cal, err := workdays.Rebuild(next)
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.fetched = fetched
	e.added = added
	e.current.Store(cal)
	return nil
}

// SetHolidayYears changes the holiday year range and refetches holidays.
func (e *Engine) SetHolidayYears(ctx context.Context, startYear, endYear int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg := e.cfg
	cfg.HolidayStartYear, cfg.HolidayEndYear = startYear, endYear
	if err := cfg.Validate(); err != nil {
		return err
	}
	return e.reloadLocked(ctx, cfg)
}

// SetExcludedWeekdays replaces the excluded weekdays.
func (e *Engine) SetExcludedWeekdays(ws []time.Weekday) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg := e.cfg
	cfg.ExcludedWeekdays = slices.Clone(ws)
	if err := e.publishLocked(cfg, e.fetched, e.added); err != nil {
		return err
	}
	e.log.Info("excluded weekdays changed", "weekdays", ws)
	return nil
}

// SetSessions replaces the intraday session borders.
func (e *Engine) SetSessions(ss []workdays.SessionBorder) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg := e.cfg
	cfg.Sessions = slices.Clone(ss)
	if err := e.publishLocked(cfg, e.fetched, e.added); err != nil {
		return err
	}
	e.log.Info("sessions changed", "sessions", len(ss))
	return nil
}

// AddHolidays adds holidays on top of the fetched ones. They survive reloads.
// Dates outside the holiday year range are dropped by the rebuild.
func (e *Engine) AddHolidays(hs []holiday.Holiday) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	added := append(slices.Clone(e.added), hs...)
	if err := e.publishLocked(e.cfg, e.fetched, added); err != nil {
		return err
	}
	e.log.Info("holidays added", "count", len(hs))
	return nil
}

// Holidays returns the named holidays of the current snapshot's inputs,
// fetched first, within the holiday year range.
func (e *Engine) Holidays() []holiday.Holiday {
	e.mu.Lock()
	defer e.mu.Unlock()
	seen := make(map[workdays.Date]bool)
	var out []holiday.Holiday
	for _, h := range slices.Concat(e.fetched, e.added) {
		if seen[h.Date] {
			continue
		}
		if s, end := e.cfg.HolidayStartYear, e.cfg.HolidayEndYear; (s != 0 || end != 0) && (h.Date.Year < s || h.Date.Year > end) {
			continue
		}
		seen[h.Date] = true
		out = append(out, h)
	}
	holiday.Sort(out)
	return out
}
