package notiflog

import (
	"context"

	"github.com/joshjon/relay/internal/notification"
)

// Repository is the Log Store contract (spec §4.B).
type Repository interface {
	// Append writes a single attempt entry. Append-only: callers never update
	// or delete an existing row.
	Append(ctx context.Context, e *Entry) error
	// FindByTaskID returns entries for a task ordered by attemptNumber ascending.
	FindByTaskID(ctx context.Context, taskID notification.TaskID) ([]*Entry, error)
	// RecentLatenciesMs returns the latencyMs of up to limit most recent entries,
	// newest first, used to compute the percentile breakdown for GET /v1/stats.
	RecentLatenciesMs(ctx context.Context, limit int) ([]int64, error)
}
