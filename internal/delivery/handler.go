package delivery

import (
	"context"
	"time"

	"github.com/joshjon/relay/internal/notiflog"
	"github.com/joshjon/relay/internal/notification"
)

// HandlerConfig tunes the Outcome Handler's retry/backoff and log-truncation
// behavior (spec §6 retry.baseDelaySeconds, log truncation limits).
type HandlerConfig struct {
	BaseDelay         time.Duration
	ResponseBodyLimit int
	ErrorMessageLimit int
}

// DefaultHandlerConfig returns the spec's defaults: 1s backoff base,
// notiflog's default truncation limits.
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		BaseDelay:         time.Second,
		ResponseBodyLimit: notiflog.DefaultMaxResponseBodyLen,
		ErrorMessageLimit: notiflog.DefaultMaxErrorMessageLen,
	}
}

// Handler reconciles a classified Outcome against the Task Store and Log
// Store (spec §4.F). Log append happens before the task-state save so a
// crash mid-attempt leaves a visible PROCESSING row the recovery sweeper
// can reclaim, never a silent loss.
type Handler struct {
	tasks *notification.Store
	logs  notiflog.Repository
	cfg   HandlerConfig
}

// NewHandler constructs an Outcome Handler. A zero HandlerConfig field falls
// back to DefaultHandlerConfig's value for that field.
func NewHandler(tasks *notification.Store, logs notiflog.Repository, cfg HandlerConfig) *Handler {
	def := DefaultHandlerConfig()
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.ResponseBodyLimit <= 0 {
		cfg.ResponseBodyLimit = def.ResponseBodyLimit
	}
	if cfg.ErrorMessageLimit <= 0 {
		cfg.ErrorMessageLimit = def.ErrorMessageLimit
	}
	return &Handler{tasks: tasks, logs: logs, cfg: cfg}
}

// Handle applies outcome to t (whose status must already be PROCESSING,
// retryCount == k) and persists the result.
func (h *Handler) Handle(ctx context.Context, t *notification.Task, outcome Outcome) error {
	now := time.Now().UTC()
	attemptNumber := t.RetryCount + 1
	success := outcome.Kind == KindSuccess

	entry := notiflog.NewEntry(t.ID, attemptNumber, outcome.HTTPStatus, outcome.ResponseBody, outcome.ErrorMessage, outcome.LatencyMs, success, h.cfg.ResponseBodyLimit, h.cfg.ErrorMessageLimit)
	if err := h.logs.Append(ctx, entry); err != nil {
		return err
	}

	switch outcome.Kind {
	case KindSuccess:
		t.Status = notification.StatusSuccess
		t.LastHTTPStatus = outcome.HTTPStatus
		t.LastError = nil
		t.CompletedAt = &now
	case KindTerminal:
		t.RetryCount = attemptNumber
		t.LastHTTPStatus = outcome.HTTPStatus
		t.LastError = errMsgPtr(outcome.ErrorMessage, outcome.Reason)
		t.Status = notification.StatusFailed
		t.CompletedAt = &now
	case KindRetryable:
		t.LastHTTPStatus = outcome.HTTPStatus
		t.LastError = errMsgPtr(outcome.ErrorMessage, outcome.Reason)
		// maxRetries counts attempts beyond the first, so a retry is still
		// owed while the pre-increment count hasn't reached it yet; on the
		// exhausting attempt retryCount stays at maxRetries rather than
		// ticking past it.
		if t.RetryCount < t.MaxRetries {
			t.RetryCount = attemptNumber
			delta := Backoff(t.RetryCount, h.cfg.BaseDelay)
			next := now.Add(delta)
			t.NextRetryAt = &next
			t.Status = notification.StatusPending
		} else {
			t.NextRetryAt = nil
			t.Status = notification.StatusFailed
			t.CompletedAt = &now
		}
	}
	t.UpdatedAt = now

	return h.tasks.Save(ctx, t)
}

// Backoff computes the exponential backoff delay for the given (already
// incremented) retry count: baseDelay * 2^retryCount, i.e. with the spec
// default 1s base: 2s, 4s, 8s, 16s, 32s… A non-positive baseDelay falls back
// to 1 second.
func Backoff(retryCount int, baseDelay time.Duration) time.Duration {
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return time.Duration(1<<uint(retryCount)) * baseDelay
}

func errMsgPtr(msg string, reason Reason) *string {
	if msg == "" {
		msg = string(reason)
	}
	if msg == "" {
		return nil
	}
	return &msg
}
