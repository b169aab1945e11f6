// Package runner drives the batch recompute: it fans the projection engine
// out over every active assignment with bounded concurrency and isolates
// per-assignment failures so one misconfigured pen never stalls the fleet.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"aquaplan/internal/config"
	"aquaplan/internal/types"
)

// AssignmentLister enumerates the assignments a batch run covers.
type AssignmentLister interface {
	ListActiveAssignmentIDs(ctx context.Context) ([]string, error)
}

// ComputeEngine recomputes and stores one assignment's projection.
type ComputeEngine interface {
	ComputeAndStore(ctx context.Context, assignmentID string) (*types.ComputeResult, error)
}

// Report summarizes one batch run. Skipped counts assignments whose own
// configuration or data made them uncomputable; Failed counts everything
// else (infrastructure trouble, bugs).
type Report struct {
	Total       int           `json:"total"`
	Succeeded   int           `json:"succeeded"`
	Skipped     int           `json:"skipped"`
	Failed      int           `json:"failed"`
	RowsWritten int           `json:"rows_written"`
	Duration    time.Duration `json:"duration"`
}

// Runner executes batch recomputes over all active assignments.
type Runner struct {
	lister AssignmentLister
	engine ComputeEngine
	cfg    config.RecomputeConfig
	clock  types.Clock
	logger *slog.Logger
}

// NewRunner creates a Runner. A nil clock defaults to wall time; a nil
// logger defaults to slog.Default().
func NewRunner(lister AssignmentLister, engine ComputeEngine, cfg config.RecomputeConfig, clock types.Clock, logger *slog.Logger) *Runner {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		lister: lister,
		engine: engine,
		cfg:    cfg,
		clock:  clock,
		logger: logger,
	}
}

// RunOnce recomputes every active assignment and returns the run report.
// Per-assignment errors never abort the run: expected conditions (no
// scenario, profile gaps, bad observed data) are logged at WARN and counted
// as skipped; unexpected errors are logged at ERROR and counted as failed.
// RunOnce itself errors only when the assignment list cannot be loaded.
func (r *Runner) RunOnce(ctx context.Context) (*Report, error) {
	started := r.clock.Now()

	ids, err := r.lister.ListActiveAssignmentIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Total: len(ids)}
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			assignmentCtx, cancel := context.WithTimeout(gCtx, r.cfg.PerAssignmentTimeout)
			defer cancel()

			result, err := r.engine.ComputeAndStore(assignmentCtx, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Succeeded++
				report.RowsWritten += result.RowsCreated
			case isSkippable(err):
				report.Skipped++
				r.logger.Warn("skipping assignment",
					"assignment_id", id,
					"error", err)
			default:
				report.Failed++
				r.logger.Error("assignment recompute failed",
					"assignment_id", id,
					"error", err)
			}
			// Never propagate: other assignments must still run.
			return nil
		})
	}

	// All goroutines return nil; Wait only observes context cancellation.
	_ = g.Wait()

	report.Duration = r.clock.Now().Sub(started)
	r.logger.Info("batch recompute finished",
		"total", report.Total,
		"succeeded", report.Succeeded,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"rows_written", report.RowsWritten,
		"duration", report.Duration)
	return report, nil
}

// isSkippable reports whether the error is a per-assignment condition the
// batch expects to see: model configuration holes, data gaps, or observed
// states that fail validation.
func isSkippable(err error) bool {
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code.IsConfiguration() || appErr.Code.IsDataGap() || appErr.Code.IsValidation()
}
