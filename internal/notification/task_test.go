package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTask(t *testing.T) {
	body := []byte(`{"hello":"world"}`)
	tsk := NewTask("billing", "https://example.com/hook", MethodPOST, map[string]string{"X-Test": "1"}, body, 5)

	assert.False(t, tsk.ID.IsZero())
	assert.Equal(t, "billing", tsk.SourceSystem)
	assert.Equal(t, StatusPending, tsk.Status)
	assert.Equal(t, 0, tsk.RetryCount)
	assert.Equal(t, 5, tsk.MaxRetries)
	assert.Nil(t, tsk.NextRetryAt)
	assert.Nil(t, tsk.CompletedAt)
	assert.False(t, tsk.CreatedAt.IsZero())
}

func TestNewTask_DefaultsMethodAndClampsRetries(t *testing.T) {
	tsk := NewTask("src", "https://example.com", "", nil, []byte(`{}`), 0)
	assert.Equal(t, MethodPOST, tsk.HTTPMethod)
	assert.Equal(t, 1, tsk.MaxRetries)
	assert.NotNil(t, tsk.Headers)

	tsk2 := NewTask("src", "https://example.com", "", nil, []byte(`{}`), 99)
	assert.Equal(t, 10, tsk2.MaxRetries)
}

func TestTask_Dispatchable(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	pending := &Task{Status: StatusPending}
	assert.True(t, pending.Dispatchable(now), "nil nextRetryAt is dispatchable")

	pending.NextRetryAt = &future
	assert.False(t, pending.Dispatchable(now), "future nextRetryAt is not dispatchable")

	pending.NextRetryAt = &past
	assert.True(t, pending.Dispatchable(now), "elapsed nextRetryAt is dispatchable")

	processing := &Task{Status: StatusProcessing}
	assert.False(t, processing.Dispatchable(now), "only PENDING tasks are dispatchable")
}
