package queue

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/joshjon/relay/internal/notification"
)

// Memory is an in-process FIFO, grounded on the teacher's buffered
// notify-channel wakeup idiom (internal/task/store.go's pendingCh) combined
// with the indexed-map bookkeeping shown by the in-memory queue example in
// the retrieved pack. It is sufficient for a single relay process; multi-
// process deployments should use Redis instead.
type Memory struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items *list.List // of notification.TaskID
	seen  map[notification.TaskID]*list.Element
}

// NewMemory constructs an empty in-process Queue.
func NewMemory() *Memory {
	m := &Memory{
		items: list.New(),
		seen:  map[notification.TaskID]*list.Element{},
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Push appends id to the tail, deduplicating against any copy already
// waiting (a duplicate push is harmless but wasteful).
func (m *Memory) Push(_ context.Context, id notification.TaskID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[id]; ok {
		return nil
	}
	el := m.items.PushBack(id)
	m.seen[id] = el
	m.cond.Signal()
	return nil
}

// PopBlocking waits up to timeout for an entry. It is woken eagerly by Push
// via sync.Cond, and falls back to a timer so callers retain a bounded wait
// even under no traffic.
func (m *Memory) PopBlocking(ctx context.Context, timeout time.Duration) (notification.TaskID, bool, error) {
	deadline := time.Now().Add(timeout)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.cond.Broadcast()
			m.mu.Unlock()
		case <-done:
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()
	for m.items.Len() == 0 {
		if ctx.Err() != nil {
			return notification.TaskID{}, false, ctx.Err()
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return notification.TaskID{}, false, nil
		}
		timer := time.AfterFunc(remaining, func() {
			m.mu.Lock()
			m.cond.Broadcast()
			m.mu.Unlock()
		})
		m.cond.Wait()
		timer.Stop()
	}

	front := m.items.Front()
	id := front.Value.(notification.TaskID)
	m.items.Remove(front)
	delete(m.seen, id)
	return id, true, nil
}

// Size reports the number of entries currently queued.
func (m *Memory) Size(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Len(), nil
}
