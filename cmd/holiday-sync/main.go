package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"workdays/internal/config"
	"workdays/internal/engine"
	"workdays/internal/holiday"
	"workdays/internal/store"
	"workdays/internal/util"
)

func main() {
	sourcesFlag := flag.String("sources", "cabinet_office",
		"comma-separated holiday sources, earlier wins per date: cabinet_office, holidays_jp, alpaca, rules:<set>, csv:<path>")
	startYear := flag.Int("start", 0, "first year to fetch (default: calendar.holiday_start_year)")
	endYear := flag.Int("end", 0, "last year to fetch (default: calendar.holiday_end_year)")
	all := flag.Bool("all", false, "fetch every year the sources publish")
	out := flag.String("out", "source/holiday_naikaku.csv", "CSV output path, relative to storage.data_dir")
	toDB := flag.Bool("db", false, "also replace the synced holidays in the sqlite registry")
	flag.Parse()

	cfgPath := "config/workdays.yaml"
	if p := os.Getenv("WORKDAYS_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	cfg.Calendar.Sources, err = parseSources(*sourcesFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	sources, err := engine.BuildSources(cfg, nil, logger)
	if err != nil {
		log.Fatalf("invalid sources: %v", err)
	}

	start, end := cfg.Calendar.HolidayStartYear, cfg.Calendar.HolidayEndYear
	if *startYear != 0 {
		start = *startYear
	}
	if *endYear != 0 {
		end = *endYear
	}
	if *all {
		start, end = 0, 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hs, err := holiday.Merge(ctx, logger, sources, start, end)
	if err != nil {
		log.Fatalf("fetching holidays: %v", err)
	}

	outPath := *out
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(cfg.Storage.DataDir, outPath)
	}
	if err := holiday.WriteCSVFile(outPath, hs); err != nil {
		log.Fatalf("writing %s: %v", outPath, err)
	}
	slog.Info("holidays written", "path", outPath, "count", len(hs), "sources", *sourcesFlag)

	if *toDB {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o755); err != nil {
			log.Fatalf("creating sqlite dir: %v", err)
		}
		db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open sqlite: %v", err)
		}
		defer db.Close()
		if err := db.ReplaceSource(ctx, *sourcesFlag, hs); err != nil {
			log.Fatalf("saving holidays: %v", err)
		}
		slog.Info("holidays saved", "db", cfg.Storage.SQLitePath, "source", *sourcesFlag)
	}
}

// parseSources turns "cabinet_office,rules:us,csv:extra.csv" into source
// configs.
func parseSources(s string) ([]config.Source, error) {
	var out []config.Source
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		typ, arg, _ := strings.Cut(item, ":")
		src := config.Source{Type: typ}
		switch typ {
		case "csv":
			src.Path = arg
		case "rules":
			src.Set = arg
		}
		out = append(out, src)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sources given")
	}
	return out, nil
}
