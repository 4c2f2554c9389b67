package notification

import (
	"encoding/json"
	"time"
)

// Task represents a single notification-delivery job.
type Task struct {
	ID             TaskID
	SourceSystem   string
	TargetURL      string
	HTTPMethod     HTTPMethod
	Headers        map[string]string
	Body           json.RawMessage
	Status         Status
	RetryCount     int
	MaxRetries     int
	NextRetryAt    *time.Time
	LastHTTPStatus *int
	LastError      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// NewTask constructs a new task in PENDING state with zeroed retry state.
// maxRetries is clamped to [1,10]; httpMethod defaults to POST if empty.
func NewTask(sourceSystem, targetURL string, method HTTPMethod, headers map[string]string, body json.RawMessage, maxRetries int) *Task {
	if method == "" {
		method = MethodPOST
	}
	if headers == nil {
		headers = map[string]string{}
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	if maxRetries > 10 {
		maxRetries = 10
	}
	now := time.Now().UTC()
	return &Task{
		ID:           NewTaskID(),
		SourceSystem: sourceSystem,
		TargetURL:    targetURL,
		HTTPMethod:   method,
		Headers:      headers,
		Body:         body,
		Status:       StatusPending,
		RetryCount:   0,
		MaxRetries:   maxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Dispatchable reports whether the task is eligible for immediate dispatch:
// PENDING and either no backoff window or one that has already elapsed.
func (t *Task) Dispatchable(now time.Time) bool {
	if t.Status != StatusPending {
		return false
	}
	return t.NextRetryAt == nil || !t.NextRetryAt.After(now)
}
