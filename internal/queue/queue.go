// Package queue implements the Queue component (spec §4.C): a FIFO of
// dispatchable task ids that decouples task creation / retry scheduling from
// worker dispatch. The queue carries hints only — every pop is re-validated
// against the Task Store (CAS claim) before a worker acts on it, so a lost,
// duplicated, or stale entry is harmless (spec §9, Queue entries are hints).
package queue

import (
	"context"
	"time"

	"github.com/joshjon/relay/internal/notification"
)

// Queue is the minimal contract the worker pool and intake/retry scheduler
// depend on. Two implementations are provided: Memory (single-process) and
// Redis (durable, shared across worker processes).
type Queue interface {
	// Push enqueues a task id for dispatch. Never blocks.
	Push(ctx context.Context, id notification.TaskID) error
	// PopBlocking waits up to timeout for an entry, returning a zero TaskID,
	// false and a nil error on timeout.
	PopBlocking(ctx context.Context, timeout time.Duration) (notification.TaskID, bool, error)
	// Size reports the approximate number of pending entries.
	Size(ctx context.Context) (int, error)
}
