package relayapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/joshjon/kit/errtag"
	"github.com/labstack/echo/v4"

	"github.com/joshjon/relay/internal/notiflog"
	"github.com/joshjon/relay/internal/notification"
	"github.com/joshjon/relay/internal/queue"
	"github.com/joshjon/relay/internal/stats"
)

// statsLatencySampleSize caps how many recent log entries feed the GET
// /v1/stats percentile calculation.
const statsLatencySampleSize = 1000

// defaultMaxRetriesFallback is used when NewHTTPHandler is given a
// non-positive defaultMaxRetries (spec §6 retry.maxRetries).
const defaultMaxRetriesFallback = 5

// HTTPHandler implements the external interfaces of spec §6.
type HTTPHandler struct {
	store             *notification.Store
	logs              notiflog.Repository
	queue             queue.Queue
	defaultMaxRetries int
}

// NewHTTPHandler creates a new HTTPHandler. defaultMaxRetries is applied to
// POST /v1/notifications requests that omit maxRetries; a non-positive value
// falls back to defaultMaxRetriesFallback.
func NewHTTPHandler(store *notification.Store, logs notiflog.Repository, q queue.Queue, defaultMaxRetries int) *HTTPHandler {
	if defaultMaxRetries <= 0 {
		defaultMaxRetries = defaultMaxRetriesFallback
	}
	return &HTTPHandler{store: store, logs: logs, queue: q, defaultMaxRetries: defaultMaxRetries}
}

// Register adds the endpoints to the provided Echo router group.
func (h *HTTPHandler) Register(g *echo.Group) {
	g.POST("/notifications", h.CreateNotification)
	g.GET("/notifications/:taskId", h.GetStatus)
	g.GET("/notifications/:taskId/logs", h.GetLogs)
	g.POST("/notifications/:taskId/retry", h.ManualRetry)
	g.GET("/stats", h.Stats)
	g.GET("/health", h.Health)
}

// CreateNotification handles POST /v1/notifications.
func (h *HTTPHandler) CreateNotification(c echo.Context) error {
	var req CreateNotificationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
	}

	if fieldErrs := validateCreate(req); fieldErrs != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"errors": fieldErrs})
	}

	maxRetries := h.defaultMaxRetries
	if req.MaxRetries != nil {
		maxRetries = *req.MaxRetries
	}
	method := notification.HTTPMethod(req.HTTPMethod)

	t := notification.NewTask(req.SourceSystem, req.TargetURL, method, req.Headers, req.Body, maxRetries)

	ctx := c.Request().Context()
	if err := h.store.CreateTask(ctx, t); err != nil {
		return jsonError(c, err)
	}

	// Persist-before-enqueue (spec §4.D): a push failure is swallowed and
	// logged here; the retry scheduler rediscovers the task on its next tick.
	if err := h.queue.Push(ctx, t.ID); err != nil {
		c.Logger().Errorf("enqueue task %s: %v", t.ID.String(), err)
	}

	return c.JSON(http.StatusAccepted, CreateNotificationResponse{
		TaskID:  t.ID.String(),
		Status:  string(t.Status),
		Message: "notification accepted",
	})
}

// GetStatus handles GET /v1/notifications/{taskId}.
func (h *HTTPHandler) GetStatus(c echo.Context) error {
	id, err := notification.ParseTaskID(c.Param("taskId"))
	if err != nil {
		return c.JSON(http.StatusNotFound, errorResponse("task not found"))
	}

	t, err := h.store.FindByTaskID(c.Request().Context(), id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, taskStatusResponse(t))
}

// GetLogs handles GET /v1/notifications/{taskId}/logs.
func (h *HTTPHandler) GetLogs(c echo.Context) error {
	id, err := notification.ParseTaskID(c.Param("taskId"))
	if err != nil {
		return c.JSON(http.StatusNotFound, errorResponse("task not found"))
	}

	// Existence check: 404 if the task itself is unknown, distinct from "no
	// attempts logged yet" (which spec §6 also maps to 404).
	if _, err := h.store.FindByTaskID(c.Request().Context(), id); err != nil {
		return jsonError(c, err)
	}

	entries, err := h.logs.FindByTaskID(c.Request().Context(), id)
	if err != nil {
		return jsonError(c, err)
	}
	if len(entries) == 0 {
		return c.JSON(http.StatusNotFound, errorResponse("no logs for task"))
	}

	out := make([]LogEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = logEntryResponse(e)
	}
	return c.JSON(http.StatusOK, out)
}

// ManualRetry handles POST /v1/notifications/{taskId}/retry.
func (h *HTTPHandler) ManualRetry(c echo.Context) error {
	id, err := notification.ParseTaskID(c.Param("taskId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse("invalid task id"))
	}

	ctx := c.Request().Context()
	ok, err := h.store.ManualRetry(ctx, id, time.Now().UTC())
	if err != nil {
		return jsonError(c, err)
	}
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse("task is not in FAILED status"))
	}

	_ = h.queue.Push(ctx, id)

	return c.JSON(http.StatusOK, map[string]string{"taskId": id.String(), "status": string(notification.StatusPending)})
}

// Stats handles GET /v1/stats.
func (h *HTTPHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	queueSize, err := h.queue.Size(ctx)
	if err != nil {
		return jsonError(c, err)
	}

	taskStats := map[string]int{}
	for _, status := range []notification.Status{
		notification.StatusPending, notification.StatusProcessing,
		notification.StatusSuccess, notification.StatusFailed,
	} {
		n, err := h.store.CountByStatus(ctx, status)
		if err != nil {
			return jsonError(c, err)
		}
		taskStats[string(status)] = n
	}

	latency, err := h.recentLatency(ctx)
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, StatsResponse{
		QueueSize: queueSize,
		TaskStats: taskStats,
		Latency:   latency,
		Timestamp: time.Now().UTC(),
	})
}

func (h *HTTPHandler) recentLatency(ctx context.Context) (LatencyStats, error) {
	samples, err := h.logs.RecentLatenciesMs(ctx, statsLatencySampleSize)
	if err != nil {
		return LatencyStats{}, err
	}
	p := stats.Percentiles(samples)
	return LatencyStats{P50: p.P50, P95: p.P95, P99: p.P99}, nil
}

// Health handles GET /v1/health.
func (h *HTTPHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func jsonError(c echo.Context, err error) error {
	code := http.StatusInternalServerError
	msg := "internal server error"

	var tagger errtag.Tagger
	if errors.As(err, &tagger) {
		code = tagger.Code()
		msg = tagger.Msg()
	}

	return c.JSON(code, errorResponse(msg))
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}
