package web

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// InteractionPruner deletes old interaction log rows.
type InteractionPruner interface {
	DeleteInteractionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupService prunes the interaction log.
type CleanupService struct {
	store  InteractionPruner
	logger *zap.Logger
	now    func() time.Time
}

// NewCleanupService creates a new cleanup service instance
func NewCleanupService(store InteractionPruner, logger *zap.Logger) *CleanupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// CleanupStaleInteractions deletes interactions older than maxAge and returns
// how many were removed. A non-positive maxAge keeps everything.
func (cs *CleanupService) CleanupStaleInteractions(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoffTime := cs.now().Add(-maxAge)

	cs.logger.Info("Starting interaction log cleanup",
		zap.Time("cutoff_time", cutoffTime),
		zap.Duration("max_age", maxAge))

	deleted, err := cs.store.DeleteInteractionsBefore(ctx, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale interactions: %w", err)
	}

	cs.logger.Info("Interaction log cleanup completed", zap.Int64("interactions_deleted", deleted))
	return deleted, nil
}
