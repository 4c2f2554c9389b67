package worker

import (
	"context"
	"time"

	"github.com/joshjon/kit/log"
	"github.com/joshjon/relay/internal/notification"
	"github.com/joshjon/relay/internal/queue"
)

const dispatchableBatchLimit = 100

// RetryScheduler is the periodic executor described in spec §4.H: on each
// tick it re-enqueues every dispatchable task, which both resumes tasks
// whose backoff window elapsed and rediscovers tasks that missed the queue
// entirely (intake-side enqueue failure, or queue loss).
type RetryScheduler struct {
	store  *notification.Store
	queue  queue.Queue
	period time.Duration
	logger log.Logger
}

// NewRetryScheduler constructs a RetryScheduler. period defaults to 10s if <= 0.
func NewRetryScheduler(store *notification.Store, q queue.Queue, period time.Duration, logger log.Logger) *RetryScheduler {
	if period <= 0 {
		period = 10 * time.Second
	}
	return &RetryScheduler{store: store, queue: q, period: period, logger: logger.With("component", "retry_scheduler")}
}

// Run blocks, ticking every period until ctx is cancelled.
func (s *RetryScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				s.logger.Error("retry scheduler tick failed", "error", err)
			}
		}
	}
}

func (s *RetryScheduler) tick(ctx context.Context) error {
	now := time.Now().UTC()
	tasks, err := s.store.FindDispatchable(ctx, now, dispatchableBatchLimit)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		// Pushing a taskId already in the queue is harmless: the worker's
		// CAS claim serializes duplicates.
		if err := s.queue.Push(ctx, t.ID); err != nil {
			s.logger.Error("failed to push dispatchable task", "task_id", t.ID.String(), "error", err)
		}
	}
	if len(tasks) > 0 {
		s.logger.Info("re-enqueued dispatchable tasks", "count", len(tasks))
	}
	return nil
}
