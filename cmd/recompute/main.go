// Package main is the entry point for the scheduled batch recompute worker.
//
// It wires the same projection engine the API uses, then either runs one
// batch immediately (-once) or starts the cron scheduler and waits for a
// shutdown signal. The worker is safe to run alongside the API: replaces
// are serialized per assignment at the database level.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aquaplan/internal/config"
	"aquaplan/internal/db"
	"aquaplan/internal/planner"
	"aquaplan/internal/projection"
	"aquaplan/internal/runner"
)

func main() {
	once := flag.Bool("once", false, "run a single batch recompute and exit")
	flag.Parse()

	if err := run(*once); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(once bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("aquaplan recompute worker starting",
		"environment", cfg.Environment,
		"schedule", cfg.Recompute.Schedule,
		"concurrency", cfg.Recompute.Concurrency,
		"once", once,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.NewPool(ctx, cfg.Database)
	cancel()
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	assignments := db.NewAssignmentRepository(pool)
	observed := db.NewObservedStateRepository(pool)
	scenarios := db.NewScenarioRepository(pool)
	projections := db.NewProjectionRepository(pool, pool)
	activityClient := planner.NewClient(cfg.Planner, logger)

	engine := projection.NewEngine(
		assignments,
		observed,
		scenarios,
		projections,
		activityClient,
		cfg.Projection,
		nil,
		logger,
	)

	batch := runner.NewRunner(assignments, engine, cfg.Recompute, nil, logger)

	if once {
		report, err := batch.RunOnce(context.Background())
		if err != nil {
			return fmt.Errorf("batch recompute: %w", err)
		}
		if report.Failed > 0 {
			return fmt.Errorf("batch recompute finished with %d failures", report.Failed)
		}
		return nil
	}

	scheduler := runner.NewScheduler(batch, cfg.Recompute, logger)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown
	logger.Info("shutdown signal received", "signal", sig.String())

	scheduler.Stop()
	logger.Info("recompute worker stopped cleanly")
	return nil
}

// newLogger creates a structured JSON logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
