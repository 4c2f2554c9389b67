package notification

import (
	"context"
	"time"

	"github.com/joshjon/kit/tx"
)

// Repository is the durable Task Store contract (spec §4.A). Implementations
// handle all backend-specific concerns (SQL dialect, error mapping) and
// return domain types.
type Repository interface {
	TaskRepository
	tx.Repository[Repository]
}

// TaskRepository defines the data-access primitives for Task Store.
type TaskRepository interface {
	// Insert fails with ErrTagDuplicateTaskID if taskId already exists.
	Insert(ctx context.Context, t *Task) error
	FindByTaskID(ctx context.Context, id TaskID) (*Task, error)
	// CompareAndSetStatus conditionally transitions status; returns true iff
	// the row's current status equaled expected. This is the only claim
	// primitive: no in-process locks, no queue leases.
	CompareAndSetStatus(ctx context.Context, id TaskID, expected, next Status, now time.Time) (bool, error)
	// Save unconditionally overwrites all mutable fields; used only after
	// the caller already holds a claim (or by the recovery sweeper, whose
	// forced reset is idempotent).
	Save(ctx context.Context, t *Task) error
	// FindDispatchable returns PENDING tasks whose nextRetryAt has elapsed
	// (or is null), ordered by createdAt ascending.
	FindDispatchable(ctx context.Context, now time.Time, limit int) ([]*Task, error)
	// FindStuck returns PROCESSING tasks whose updatedAt is older than threshold.
	FindStuck(ctx context.Context, threshold time.Time) ([]*Task, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
}
