package session

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSweepSchedule runs the sweep every five minutes.
const DefaultSweepSchedule = "@every 5m"

// Sweeper periodically removes idle walkthroughs from a Store.
type Sweeper struct {
	store    *Store
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger

	// OnSweep, when set, receives the number of sessions removed by each run.
	OnSweep func(removed int)
}

// NewSweeper creates a sweeper for the store. It does nothing until Start.
func NewSweeper(store *Store, schedule string, logger *zap.Logger) *Sweeper {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		store:    store,
		schedule: schedule,
		cron: cron.New(cron.WithParser(cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		))),
		logger: logger,
	}
}

// Start registers the sweep and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce() }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("Session sweeper started",
		zap.String("schedule", s.schedule),
		zap.Duration("idle_timeout", s.store.IdleTimeout()))
	return nil
}

// RunOnce sweeps immediately and returns the number of sessions removed.
func (s *Sweeper) RunOnce() int {
	removed := s.store.Sweep()
	if removed > 0 {
		s.logger.Info("Stale session cleanup completed",
			zap.Int("sessions_deleted", removed),
			zap.Int("sessions_remaining", s.store.Len()))
	} else {
		s.logger.Debug("No stale sessions found")
	}
	if s.OnSweep != nil {
		s.OnSweep(removed)
	}
	return removed
}

// Stop halts the scheduler and waits for a running sweep, or for ctx.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Session sweeper stop timed out")
	}
	s.logger.Info("Session sweeper stopped")
}
