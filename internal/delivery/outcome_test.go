package delivery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_DecisionTable(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		err        error
		wantKind   Kind
		wantReason Reason
	}{
		{"network error", 0, errors.New("dial tcp: connect refused"), KindRetryable, ReasonNetwork},
		{"200 OK", 200, nil, KindSuccess, ReasonNone},
		{"299 edge", 299, nil, KindSuccess, ReasonNone},
		{"300 redirect", 300, nil, KindTerminal, ReasonNonTwoXX},
		{"399 redirect edge", 399, nil, KindTerminal, ReasonNonTwoXX},
		{"408 timeout", 408, nil, KindRetryable, ReasonTransientClient},
		{"429 too many requests", 429, nil, KindRetryable, ReasonTransientClient},
		{"400 bad request", 400, nil, KindTerminal, ReasonClientError},
		{"404 not found", 404, nil, KindTerminal, ReasonClientError},
		{"499 edge", 499, nil, KindTerminal, ReasonClientError},
		{"500 server error", 500, nil, KindRetryable, ReasonServerError},
		{"503 unavailable", 503, nil, KindRetryable, ReasonServerError},
		{"599 edge", 599, nil, KindRetryable, ReasonServerError},
		{"unexpected status", 650, nil, KindRetryable, ReasonSystem},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			o := Classify(c.status, "", c.err, 10)
			assert.Equal(t, c.wantKind, o.Kind)
			assert.Equal(t, c.wantReason, o.Reason)
		})
	}
}

func TestClassify_NetworkErrorTakesPrecedenceOverStatus(t *testing.T) {
	// A status of 0 with a non-nil error must classify as network, never
	// fall through to the "unexpected status" branch.
	o := Classify(0, "", errors.New("timeout"), 5)
	assert.Equal(t, KindRetryable, o.Kind)
	assert.Equal(t, ReasonNetwork, o.Reason)
}

func TestClassify_SuccessCapturesHTTPStatus(t *testing.T) {
	o := Classify(202, "accepted", nil, 42)
	require := assert.New(t)
	require.NotNil(o.HTTPStatus)
	require.Equal(202, *o.HTTPStatus)
	require.Equal("accepted", o.ResponseBody)
	require.Equal(int64(42), o.LatencyMs)
}
