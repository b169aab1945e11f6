package runner

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"aquaplan/internal/config"
)

// Scheduler runs the batch recompute on a cron schedule. The standard
// five-field cron syntax applies (minute, hour, day-of-month, month,
// day-of-week); the default "0 2 * * *" recomputes nightly after the day's
// observed states have been recorded.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	cfg    config.RecomputeConfig
	logger *slog.Logger
}

// NewScheduler creates a Scheduler around the given runner.
func NewScheduler(runner *Runner, cfg config.RecomputeConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers the recompute job and starts the cron loop. The returned
// error is non-nil only for an unparseable schedule expression.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.Schedule, s.runScheduled)
	if err != nil {
		return err
	}
	s.logger.Info("recompute schedule registered", "schedule", s.cfg.Schedule)
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping recompute scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runScheduled() {
	s.logger.Info("scheduled batch recompute starting")
	if _, err := s.runner.RunOnce(context.Background()); err != nil {
		s.logger.Error("scheduled batch recompute aborted", "error", err)
	}
}
