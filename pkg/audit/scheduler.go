package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the pruner on a cron schedule.
type Scheduler struct {
	pruner   *Pruner
	cron     *cron.Cron
	schedule string
	logger   *slog.Logger
}

// NewScheduler creates a scheduler running pruner per the given standard
// cron expression (five fields).
func NewScheduler(pruner *Pruner, schedule string, logger *slog.Logger) (*Scheduler, error) {
	if pruner == nil {
		return nil, fmt.Errorf("pruner is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}

	return &Scheduler{
		pruner:   pruner,
		cron:     cron.New(),
		schedule: schedule,
		logger:   logger.With("component", "audit.scheduler"),
	}, nil
}

// Start begins scheduled pruning. Each run gets a bounded context so a
// wedged store cannot pile up overlapping prunes.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := s.pruner.Prune(ctx); err != nil {
			s.logger.Error("scheduled prune failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.logger.Info("audit retention scheduler started", "schedule", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for any running prune to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("audit retention scheduler stopped")
}
