package delivery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/joshjon/relay/internal/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_Dispatch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "v1", r.Header.Get("X-Custom"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	exec := NewExecutor(DefaultExecutorConfig())
	tsk := notification.NewTask("billing", srv.URL, notification.MethodPOST, map[string]string{"X-Custom": "v1"}, []byte(`{"a":1}`), 3)

	outcome := exec.Dispatch(context.Background(), tsk)
	require.Equal(t, KindSuccess, outcome.Kind)
	require.NotNil(t, outcome.HTTPStatus)
	assert.Equal(t, 200, *outcome.HTTPStatus)
	assert.Contains(t, outcome.ResponseBody, "ok")
}

func TestExecutor_Dispatch_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	exec := NewExecutor(DefaultExecutorConfig())
	tsk := notification.NewTask("billing", srv.URL, notification.MethodPOST, nil, []byte(`{}`), 3)

	outcome := exec.Dispatch(context.Background(), tsk)
	assert.Equal(t, KindRetryable, outcome.Kind)
	assert.Equal(t, ReasonServerError, outcome.Reason)
}

func TestExecutor_Dispatch_RedirectIsTerminalNotFollowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://example.com/elsewhere")
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	exec := NewExecutor(DefaultExecutorConfig())
	tsk := notification.NewTask("billing", srv.URL, notification.MethodPOST, nil, []byte(`{}`), 3)

	outcome := exec.Dispatch(context.Background(), tsk)
	assert.Equal(t, KindTerminal, outcome.Kind)
	assert.Equal(t, ReasonNonTwoXX, outcome.Reason)
}

func TestExecutor_Dispatch_ConnectFailureIsRetryableNetwork(t *testing.T) {
	exec := NewExecutor(ExecutorConfig{ConnectTimeout: 200 * time.Millisecond, ReadTimeout: 200 * time.Millisecond})
	tsk := notification.NewTask("billing", "http://127.0.0.1:1", notification.MethodPOST, nil, []byte(`{}`), 3)

	outcome := exec.Dispatch(context.Background(), tsk)
	assert.Equal(t, KindRetryable, outcome.Kind)
	assert.Equal(t, ReasonNetwork, outcome.Reason)
	assert.Nil(t, outcome.HTTPStatus)
}
