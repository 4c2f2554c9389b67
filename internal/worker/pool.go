// Package worker implements the Worker Pool (spec §4.G), Retry Scheduler
// (spec §4.H), and Recovery Sweeper (spec §4.I): the three periodic/pooled
// executors that drive dispatch, backoff resumption, and crash recovery.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/joshjon/kit/log"
	"github.com/joshjon/relay/internal/delivery"
	"github.com/joshjon/relay/internal/notification"
	"github.com/joshjon/relay/internal/queue"
)

// PoolConfig tunes the worker pool (spec §4.G).
type PoolConfig struct {
	Concurrency    int
	PollTimeout    time.Duration
	ShutdownGrace  time.Duration
	ErrorBackoff   time.Duration
}

// DefaultPoolConfig returns the spec's defaults: 4 workers, 5s poll timeout,
// 30s shutdown grace, 1s error backoff.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Concurrency:   4,
		PollTimeout:   5 * time.Second,
		ShutdownGrace: 30 * time.Second,
		ErrorBackoff:  time.Second,
	}
}

// Pool runs N worker loops (spec §4.G). Each loop blocks on the queue,
// CAS-claims the popped task, dispatches it, and reconciles the outcome.
type Pool struct {
	cfg     PoolConfig
	queue   queue.Queue
	store   *notification.Store
	exec    *delivery.Executor
	handler *delivery.Handler
	logger  log.Logger

	wg sync.WaitGroup
}

// NewPool constructs a worker pool.
func NewPool(cfg PoolConfig, q queue.Queue, store *notification.Store, exec *delivery.Executor, handler *delivery.Handler, logger log.Logger) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Pool{cfg: cfg, queue: q, store: store, exec: exec, handler: handler, logger: logger.With("component", "worker_pool")}
}

// Run starts cfg.Concurrency worker loops and blocks until ctx is cancelled,
// then waits up to cfg.ShutdownGrace for in-flight iterations to finish.
func (p *Pool) Run(ctx context.Context) {
	for i := 0; i < p.cfg.Concurrency; i++ {
		p.wg.Add(1)
		go p.runLoop(ctx, i)
	}

	<-ctx.Done()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(p.cfg.ShutdownGrace):
		p.logger.Warn("worker pool shutdown grace period elapsed, some workers may still be in flight")
	}
}

func (p *Pool) runLoop(ctx context.Context, idx int) {
	defer p.wg.Done()
	logger := p.logger.With("worker", idx)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := p.tick(ctx, logger); err != nil {
			logger.Error("worker iteration failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.cfg.ErrorBackoff):
			}
		}
	}
}

// tick implements one iteration of the loop described in spec §4.G steps 1-5.
func (p *Pool) tick(ctx context.Context, logger log.Logger) error {
	id, ok, err := p.queue.PopBlocking(ctx, p.cfg.PollTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	tsk, err := p.store.FindByTaskID(ctx, id)
	if err != nil {
		// Stale queue entry referencing a pruned row: drop silently.
		return nil
	}

	now := time.Now().UTC()
	claimed, err := p.store.ClaimTask(ctx, id, now)
	if err != nil {
		return err
	}
	if !claimed {
		// Another worker owns it already.
		return nil
	}

	tsk, err = p.store.FindByTaskID(ctx, id)
	if err != nil {
		return err
	}

	// Safer variant of the open question (spec §9): a task can be claimed
	// while its nextRetryAt is still in the future if the retry scheduler's
	// re-enqueue races a worker that was already blocked in PopBlocking.
	// Release the claim and skip dispatch rather than deliver early.
	if tsk.NextRetryAt != nil && tsk.NextRetryAt.After(now) {
		_, relErr := p.store.ReleaseClaim(ctx, id, time.Now().UTC())
		if relErr != nil {
			logger.Error("failed to release premature claim", "task_id", tsk.ID.String(), "error", relErr)
		}
		return nil
	}

	outcome := p.exec.Dispatch(ctx, tsk)
	if err := p.handler.Handle(ctx, tsk, outcome); err != nil {
		logger.Error("failed to handle delivery outcome", "task_id", tsk.ID.String(), "error", err)
		return err
	}
	logger.Info("dispatched task", "task_id", tsk.ID.String(), "outcome", outcome.Kind.String(), "status", tsk.Status)
	return nil
}
