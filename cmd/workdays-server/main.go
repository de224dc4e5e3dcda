package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"workdays/internal/api"
	"workdays/internal/config"
	"workdays/internal/engine"
	"workdays/internal/util"
)

func main() {
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

	srv := api.NewServer(cfg.Server, eng, logger)
	slog.Info("workdays-server starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"grpcPort", cfg.Server.GRPCPort)
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
