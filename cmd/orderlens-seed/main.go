package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/orderlens/orderlens/internal/config"
	"github.com/orderlens/orderlens/internal/export"
	"github.com/orderlens/orderlens/internal/observability"
	"github.com/orderlens/orderlens/internal/seed"
	s3store "github.com/orderlens/orderlens/internal/storage/s3"
	"github.com/orderlens/orderlens/internal/store"
)

func main() {
	count := flag.Int("count", 3000, "number of orders to generate")
	seedValue := flag.Int64("seed", 1, "random seed for the generator")
	flag.Parse()

	cfg, err := config.LoadFromEnv("orderlens-seed")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logger.Error("failed to open orders db", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	var exporter seed.Exporter
	if cfg.Export.Enabled {
		objectStore, err := s3store.New(ctx, cfg.Export)
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		exporter = export.New(objectStore)
	}

	seeder := seed.NewSeeder(db, exporter, logger)
	if err := seeder.Run(ctx, *seedValue, *count); err != nil {
		logger.Error("seeding failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("seeding complete",
		slog.Int("count", *count),
		slog.String("driver", cfg.Store.Driver),
		slog.String("dsn", cfg.Store.DSN),
	)
}
