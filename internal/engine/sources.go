package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"workdays/internal/config"
	"workdays/internal/holiday"
	"workdays/internal/store"
	"workdays/internal/util"
)

// Open builds an engine from cfg and loads its first snapshot. The sqlite
// registry is opened only when a source of type "sqlite" is configured; the
// returned close function releases it.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Engine, func() error, error) {
	base, err := cfg.Calendar.EngineConfig()
	if err != nil {
		return nil, nil, err
	}

	closer := func() error { return nil }
	var db holiday.Source
	for _, s := range cfg.Calendar.Sources {
		if s.Type != "sqlite" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating sqlite dir: %w", err)
		}
		sqlite, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite: %w", err)
		}
		db, closer = sqlite, sqlite.Close
		break
	}

	sources, err := BuildSources(cfg, db, log)
	if err != nil {
		closer()
		return nil, nil, err
	}
	e := New(log, base, sources)
	if err := e.Reload(ctx); err != nil {
		closer()
		return nil, nil, err
	}
	return e, closer, nil
}

// BuildSources turns the configured source list into holiday sources.
// Relative csv paths are resolved against the data directory. db backs the
// "sqlite" source type and may be nil when none is configured.
func BuildSources(cfg *config.Config, db holiday.Source, log *slog.Logger) ([]holiday.Source, error) {
	var out []holiday.Source
	for i, s := range cfg.Calendar.Sources {
		switch s.Type {
		case "csv":
			path := s.Path
			if path == "" {
				return nil, fmt.Errorf("calendar.sources[%d]: csv source needs a path", i)
			}
			if !filepath.IsAbs(path) && cfg.Storage.DataDir != "" {
				path = filepath.Join(cfg.Storage.DataDir, path)
			}
			out = append(out, &holiday.CSVSource{Path: path})
		case "sqlite":
			if db == nil {
				return nil, fmt.Errorf("calendar.sources[%d]: sqlite source without a database", i)
			}
			out = append(out, db)
		case "cabinet_office":
			out = append(out, &holiday.CabinetOfficeSource{
				URL:         cfg.Holidays.CabinetOfficeURL,
				MaxAttempts: cfg.Holidays.MaxAttempts,
			})
		case "holidays_jp":
			out = append(out, &holiday.HolidaysJPSource{
				BaseURL:     cfg.Holidays.HolidaysJPURL,
				Limiter:     util.NewRateLimiter(cfg.Holidays.RateLimitPerMin, cfg.Holidays.RateBurst),
				MaxAttempts: cfg.Holidays.MaxAttempts,
				Log:         log,
			})
		case "alpaca":
			out = append(out, holiday.NewAlpacaSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL))
		case "rules":
			rs, err := holiday.NewRuleSource(s.Set)
			if err != nil {
				return nil, fmt.Errorf("calendar.sources[%d]: %w", i, err)
			}
			out = append(out, rs)
		default:
			return nil, fmt.Errorf("calendar.sources[%d]: unknown source type %q", i, s.Type)
		}
	}
	return out, nil
}
