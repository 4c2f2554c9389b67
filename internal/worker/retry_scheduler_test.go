package worker

import (
	"context"
	"testing"
	"time"

	"github.com/joshjon/relay/internal/notification"
	"github.com/joshjon/relay/internal/queue"
	"github.com/stretchr/testify/require"
)

func TestRetryScheduler_ReenqueuesDispatchableTasks(t *testing.T) {
	repo := newMockTaskRepo()
	store := notification.NewStore(repo)
	q := queue.NewMemory()
	ctx := context.Background()

	tsk := notification.NewTask("billing", "https://example.com", notification.MethodPOST, nil, []byte(`{}`), 3)
	require.NoError(t, store.CreateTask(ctx, tsk))

	sched := NewRetryScheduler(store, q, time.Hour, testLogger())
	require.NoError(t, sched.tick(ctx))

	n, err := q.Size(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRetryScheduler_SkipsFutureBackoff(t *testing.T) {
	repo := newMockTaskRepo()
	store := notification.NewStore(repo)
	q := queue.NewMemory()
	ctx := context.Background()

	future := time.Now().Add(time.Hour)
	tsk := notification.NewTask("billing", "https://example.com", notification.MethodPOST, nil, []byte(`{}`), 3)
	tsk.NextRetryAt = &future
	require.NoError(t, store.CreateTask(ctx, tsk))

	sched := NewRetryScheduler(store, q, time.Hour, testLogger())
	require.NoError(t, sched.tick(ctx))

	n, err := q.Size(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
