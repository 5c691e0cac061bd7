package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"delivery-route-optimizer/internal/config"
	"delivery-route-optimizer/internal/platform/db"
	"delivery-route-optimizer/internal/platform/obs"
)

// dbtool creates the cache and history tables ahead of the first server start.
func main() {
	if err := run(); err != nil {
		slog.Error("dbtool failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	logger, err := obs.NewLogger(cfg.Env.Log, os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info("initializing database schema")
	if err := db.InitSchema(ctx, conn); err != nil {
		return err
	}
	logger.Info("schema ready")
	return nil
}
