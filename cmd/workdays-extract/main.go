package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workdays/internal/config"
	"workdays/internal/engine"
	"workdays/internal/store"
	"workdays/internal/util"
)

func main() {
	outFlag := flag.String("out", "", "output path for a single series (default: <data_dir>/masks/<name>)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: workdays-extract [options] <series.parquet>...\n\n")
		fmt.Fprintf(os.Stderr, "Reads the timestamp column of each Parquet series and writes the\n")
		fmt.Fprintf(os.Stderr, "business_day, in_session and business_session masks.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 || (*outFlag != "" && flag.NArg() > 1) {
		flag.Usage()
		os.Exit(1)
	}

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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng, closeStore, err := engine.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to build calendar: %v", err)
	}
	defer closeStore()

	cal, err := eng.Calendar()
	if err != nil {
		log.Fatalf("calendar: %v", err)
	}

	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	for _, in := range flag.Args() {
		if ctx.Err() != nil {
			break
		}
		out := *outFlag
		if out == "" {
			out = pstore.MaskPath(in)
		}
		start := time.Now()
		n, err := store.ExtractMasks(ctx, cal, pstore, in, out)
		if err != nil {
			log.Fatalf("extracting %s: %v", in, err)
		}
		slog.Info("masks written", "series", in, "out", out, "rows", n, "elapsed", time.Since(start))
	}
}
