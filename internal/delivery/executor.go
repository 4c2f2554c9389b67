package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/joshjon/relay/internal/notification"
)

const maxCapturedResponseBody = 4096

// ExecutorConfig tunes the outbound HTTP client (spec §4.E).
type ExecutorConfig struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// DefaultExecutorConfig returns the spec's default timeouts (connect 5s, read 30s).
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{ConnectTimeout: 5 * time.Second, ReadTimeout: 30 * time.Second}
}

// Executor performs exactly one outbound HTTP attempt per call and returns a
// classified Outcome. It never mutates task state — that is the Outcome
// Handler's job.
type Executor struct {
	client *http.Client
}

// NewExecutor builds an Executor whose transport enforces the configured
// connect timeout; the client's overall Timeout enforces the read deadline.
func NewExecutor(cfg ExecutorConfig) *Executor {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
	}
	return &Executor{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.ConnectTimeout + cfg.ReadTimeout,
			// Redirects are not followed transparently (spec §4.E): a 3xx
			// is classified Terminal(non-2xx), not chased.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Dispatch performs one attempt against the task's target and returns the
// classified outcome.
func (e *Executor) Dispatch(ctx context.Context, t *notification.Task) Outcome {
	start := time.Now()

	req, err := e.buildRequest(ctx, t)
	if err != nil {
		return Classify(0, "", err, time.Since(start).Milliseconds())
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return Classify(0, "", err, time.Since(start).Milliseconds())
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxCapturedResponseBody))
	latency := time.Since(start).Milliseconds()
	return Classify(resp.StatusCode, string(body), nil, latency)
}

func (e *Executor) buildRequest(ctx context.Context, t *notification.Task) (*http.Request, error) {
	method := string(t.HTTPMethod)
	if method == "" {
		method = string(notification.MethodPOST)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.TargetURL, bytes.NewReader(t.Body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}
