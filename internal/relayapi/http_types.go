// Package relayapi implements the HTTP surface described in spec §6: create,
// status, logs, manual retry, stats, and health.
package relayapi

import (
	"encoding/json"
	"time"

	"github.com/joshjon/relay/internal/notiflog"
	"github.com/joshjon/relay/internal/notification"
)

// CreateNotificationRequest is the POST /v1/notifications request body.
type CreateNotificationRequest struct {
	SourceSystem string            `json:"sourceSystem"`
	TargetURL    string            `json:"targetUrl"`
	HTTPMethod   string            `json:"httpMethod"`
	Headers      map[string]string `json:"headers"`
	Body         json.RawMessage   `json:"body"`
	MaxRetries   *int              `json:"maxRetries"`
}

// CreateNotificationResponse is the 202 response body.
type CreateNotificationResponse struct {
	TaskID  string `json:"taskId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TaskStatusResponse is the status projection returned by GET /v1/notifications/{taskId}.
type TaskStatusResponse struct {
	TaskID         string     `json:"taskId"`
	SourceSystem   string     `json:"sourceSystem"`
	TargetURL      string     `json:"targetUrl"`
	HTTPMethod     string     `json:"httpMethod"`
	Status         string     `json:"status"`
	RetryCount     int        `json:"retryCount"`
	MaxRetries     int        `json:"maxRetries"`
	NextRetryAt    *time.Time `json:"nextRetryAt,omitempty"`
	LastHTTPStatus *int       `json:"lastHttpStatus,omitempty"`
	LastError      *string    `json:"lastError,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

func taskStatusResponse(t *notification.Task) TaskStatusResponse {
	return TaskStatusResponse{
		TaskID:         t.ID.String(),
		SourceSystem:   t.SourceSystem,
		TargetURL:      t.TargetURL,
		HTTPMethod:     string(t.HTTPMethod),
		Status:         string(t.Status),
		RetryCount:     t.RetryCount,
		MaxRetries:     t.MaxRetries,
		NextRetryAt:    t.NextRetryAt,
		LastHTTPStatus: t.LastHTTPStatus,
		LastError:      t.LastError,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		CompletedAt:    t.CompletedAt,
	}
}

// LogEntryResponse is a single row of the GET /v1/notifications/{taskId}/logs response.
type LogEntryResponse struct {
	AttemptNumber int     `json:"attemptNumber"`
	HTTPStatus    *int    `json:"httpStatus,omitempty"`
	ResponseBody  string  `json:"responseBody"`
	ErrorMessage  string  `json:"errorMessage"`
	LatencyMs     int64   `json:"latencyMs"`
	Success       bool    `json:"success"`
	CreatedAt     string  `json:"createdAt"`
}

func logEntryResponse(e *notiflog.Entry) LogEntryResponse {
	return LogEntryResponse{
		AttemptNumber: e.AttemptNumber,
		HTTPStatus:    e.HTTPStatus,
		ResponseBody:  e.ResponseBody,
		ErrorMessage:  e.ErrorMessage,
		LatencyMs:     e.LatencyMs,
		Success:       e.Success,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339Nano),
	}
}

// StatsResponse is the GET /v1/stats response body.
type StatsResponse struct {
	QueueSize int            `json:"queueSize"`
	TaskStats map[string]int `json:"taskStats"`
	Latency   LatencyStats   `json:"latencyMs"`
	Timestamp time.Time      `json:"timestamp"`
}

// LatencyStats holds the percentile breakdown of recent delivery latency.
type LatencyStats struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// HealthResponse is the GET /v1/health response body.
type HealthResponse struct {
	Status string `json:"status"`
}
