package worker

import (
	"context"
	"time"

	"github.com/joshjon/kit/log"
	"github.com/joshjon/relay/internal/notification"
	"github.com/joshjon/relay/internal/queue"
)

// RecoverySweeper is the periodic executor described in spec §4.I: it
// reclaims PROCESSING tasks whose worker died without completing either
// terminal transition, forcing them back to PENDING and re-enqueueing.
type RecoverySweeper struct {
	store     *notification.Store
	queue     queue.Queue
	period    time.Duration
	threshold time.Duration
	logger    log.Logger
}

// NewRecoverySweeper constructs a RecoverySweeper. period defaults to 60s,
// threshold to 5 minutes, if either is <= 0.
func NewRecoverySweeper(store *notification.Store, q queue.Queue, period, threshold time.Duration, logger log.Logger) *RecoverySweeper {
	if period <= 0 {
		period = 60 * time.Second
	}
	if threshold <= 0 {
		threshold = 5 * time.Minute
	}
	return &RecoverySweeper{store: store, queue: q, period: period, threshold: threshold, logger: logger.With("component", "recovery_sweeper")}
}

// Run blocks, ticking every period until ctx is cancelled.
func (s *RecoverySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				s.logger.Error("recovery sweeper tick failed", "error", err)
			}
		}
	}
}

func (s *RecoverySweeper) tick(ctx context.Context) error {
	now := time.Now().UTC()
	threshold := now.Add(-s.threshold)

	stuck, err := s.store.FindStuck(ctx, threshold)
	if err != nil {
		return err
	}

	for _, t := range stuck {
		t.Status = notification.StatusPending
		t.UpdatedAt = now
		if err := s.store.Save(ctx, t); err != nil {
			s.logger.Error("failed to reclaim stuck task", "task_id", t.ID.String(), "error", err)
			continue
		}
		if err := s.queue.Push(ctx, t.ID); err != nil {
			s.logger.Error("failed to re-enqueue reclaimed task", "task_id", t.ID.String(), "error", err)
		}
	}
	if len(stuck) > 0 {
		s.logger.Warn("reclaimed stuck tasks", "count", len(stuck))
	}
	return nil
}
