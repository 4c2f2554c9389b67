package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/joshjon/kit/tx"
	"github.com/joshjon/relay/internal/notiflog"
	"github.com/joshjon/relay/internal/notification"
)

// mockTaskRepo is a minimal in-memory notification.Repository used only by
// this package's tests, mirroring the teacher's approach of exercising
// downstream logic against simple fakes rather than real databases.
type mockTaskRepo struct {
	mu    sync.Mutex
	tasks map[notification.TaskID]*notification.Task
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: map[notification.TaskID]*notification.Task{}}
}

func (m *mockTaskRepo) clone(t *notification.Task) *notification.Task {
	cp := *t
	return &cp
}

func (m *mockTaskRepo) Insert(_ context.Context, t *notification.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = m.clone(t)
	return nil
}

func (m *mockTaskRepo) FindByTaskID(_ context.Context, id notification.TaskID) (*notification.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, notification.ErrTagTaskNotFound{}
	}
	return m.clone(t), nil
}

func (m *mockTaskRepo) CompareAndSetStatus(_ context.Context, id notification.TaskID, expected, next notification.Status, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return false, notification.ErrTagTaskNotFound{}
	}
	if t.Status != expected {
		return false, nil
	}
	t.Status = next
	t.UpdatedAt = now
	return true, nil
}

func (m *mockTaskRepo) Save(_ context.Context, t *notification.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = m.clone(t)
	return nil
}

func (m *mockTaskRepo) FindDispatchable(_ context.Context, now time.Time, limit int) ([]*notification.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*notification.Task
	for _, t := range m.tasks {
		if t.Dispatchable(now) {
			out = append(out, m.clone(t))
		}
	}
	return out, nil
}

func (m *mockTaskRepo) FindStuck(_ context.Context, threshold time.Time) ([]*notification.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*notification.Task
	for _, t := range m.tasks {
		if t.Status == notification.StatusProcessing && t.UpdatedAt.Before(threshold) {
			out = append(out, m.clone(t))
		}
	}
	return out, nil
}

func (m *mockTaskRepo) CountByStatus(_ context.Context, status notification.Status) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if t.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockTaskRepo) BeginTxFunc(ctx context.Context, fn func(context.Context, tx.Tx, notification.Repository) error) error {
	return fn(ctx, nil, m)
}

func (m *mockTaskRepo) WithTx(_ tx.Tx) notification.Repository {
	return m
}

var _ notification.Repository = (*mockTaskRepo)(nil)

// mockLogRepo is a minimal in-memory notiflog.Repository.
type mockLogRepo struct {
	mu     sync.Mutex
	byTask map[notification.TaskID][]*notiflog.Entry
}

func newMockLogRepo() *mockLogRepo {
	return &mockLogRepo{byTask: map[notification.TaskID][]*notiflog.Entry{}}
}

func (m *mockLogRepo) Append(_ context.Context, e *notiflog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byTask[e.TaskID] = append(m.byTask[e.TaskID], e)
	return nil
}

func (m *mockLogRepo) FindByTaskID(_ context.Context, taskID notification.TaskID) ([]*notiflog.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byTask[taskID], nil
}

func (m *mockLogRepo) RecentLatenciesMs(_ context.Context, limit int) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for _, entries := range m.byTask {
		for _, e := range entries {
			out = append(out, e.LatencyMs)
			if len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

var _ notiflog.Repository = (*mockLogRepo)(nil)
