package notification

import (
	"context"
	"time"
)

// Store wraps a Repository and adds no business rules beyond what spec
// §4.A states; it exists so callers (intake, worker pool, schedulers,
// HTTP handlers) depend on one narrow surface instead of the raw
// Repository, mirroring the teacher's Repository/Store split.
type Store struct {
	repo Repository
}

// NewStore creates a Store backed by the given Repository.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// CreateTask persists a newly constructed task. Fails with
// ErrTagDuplicateTaskID if the id already exists.
func (s *Store) CreateTask(ctx context.Context, t *Task) error {
	return s.repo.Insert(ctx, t)
}

// FindByTaskID reads a task by id.
func (s *Store) FindByTaskID(ctx context.Context, id TaskID) (*Task, error) {
	return s.repo.FindByTaskID(ctx, id)
}

// ClaimTask attempts the CAS transition PENDING→PROCESSING. Returns true iff
// this caller won the claim.
func (s *Store) ClaimTask(ctx context.Context, id TaskID, now time.Time) (bool, error) {
	return s.repo.CompareAndSetStatus(ctx, id, StatusPending, StatusProcessing, now)
}

// ReleaseClaim reverts a held claim back to PENDING. Used when the safer
// variant of the open question (spec §9) finds nextRetryAt still in the
// future after a successful claim.
func (s *Store) ReleaseClaim(ctx context.Context, id TaskID, now time.Time) (bool, error) {
	return s.repo.CompareAndSetStatus(ctx, id, StatusProcessing, StatusPending, now)
}

// Save unconditionally overwrites all mutable fields of an already-claimed task.
func (s *Store) Save(ctx context.Context, t *Task) error {
	return s.repo.Save(ctx, t)
}

// FindDispatchable returns dispatchable PENDING tasks (spec §4.A), oldest first.
func (s *Store) FindDispatchable(ctx context.Context, now time.Time, limit int) ([]*Task, error) {
	return s.repo.FindDispatchable(ctx, now, limit)
}

// FindStuck returns PROCESSING tasks whose updatedAt predates threshold.
func (s *Store) FindStuck(ctx context.Context, threshold time.Time) ([]*Task, error) {
	return s.repo.FindStuck(ctx, threshold)
}

// CountByStatus returns the number of tasks currently in the given status.
func (s *Store) CountByStatus(ctx context.Context, status Status) (int, error) {
	return s.repo.CountByStatus(ctx, status)
}

// ManualRetry resets a FAILED task back to PENDING (spec §3 lifecycle:
// retryCount←0, nextRetryAt←null, completedAt←null) and reports whether the
// task was actually in FAILED status. The transition is itself CAS-gated
// (expected=FAILED) so a concurrent recovery sweep and a manual retry
// targeting the same row are benign (spec §9, Manual-retry race).
func (s *Store) ManualRetry(ctx context.Context, id TaskID, now time.Time) (bool, error) {
	ok, err := s.repo.CompareAndSetStatus(ctx, id, StatusFailed, StatusPending, now)
	if err != nil || !ok {
		return ok, err
	}
	t, err := s.repo.FindByTaskID(ctx, id)
	if err != nil {
		return true, err
	}
	t.RetryCount = 0
	t.NextRetryAt = nil
	t.CompletedAt = nil
	t.Status = StatusPending
	t.UpdatedAt = now
	return true, s.repo.Save(ctx, t)
}
