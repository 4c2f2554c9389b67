// Package delivery implements the Delivery Executor (spec §4.E) and Outcome
// Handler (spec §4.F): one outbound HTTP attempt per call, classified against
// a fixed decision table, then reconciled against the Task Store and Log
// Store. Grounded on the retrieved xraph relay engine's Sender/Retrier split.
package delivery

import "fmt"

// Kind classifies an observed delivery outcome.
type Kind int

const (
	KindSuccess Kind = iota
	KindTerminal
	KindRetryable
)

// Reason further qualifies a Terminal/Retryable outcome for logging.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonNetwork          Reason = "network"
	ReasonNonTwoXX         Reason = "non-2xx"
	ReasonTransientClient  Reason = "transient-client"
	ReasonClientError      Reason = "client-error"
	ReasonServerError      Reason = "server-error"
	ReasonSystem           Reason = "system"
)

// Outcome is the classified result of a single dispatch attempt, including
// the raw observations the Outcome Handler needs to write a log entry.
type Outcome struct {
	Kind         Kind
	Reason       Reason
	HTTPStatus   *int
	ResponseBody string
	ErrorMessage string
	LatencyMs    int64
}

func (o Outcome) String() string {
	status := "none"
	if o.HTTPStatus != nil {
		status = fmt.Sprintf("%d", *o.HTTPStatus)
	}
	return fmt.Sprintf("%v(%s) status=%s", o.Kind, o.Reason, status)
}

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "Success"
	case KindTerminal:
		return "Terminal"
	case KindRetryable:
		return "Retryable"
	default:
		return "Unknown"
	}
}

// Classify applies the spec's outcome decision table. err is any transport
// error from the HTTP round trip (nil on a received response). status/body
// are populated only when a response was actually received.
func Classify(status int, body string, err error, latencyMs int64) Outcome {
	o := Outcome{ResponseBody: body, LatencyMs: latencyMs}

	if err != nil {
		o.Kind = KindRetryable
		o.Reason = ReasonNetwork
		o.ErrorMessage = err.Error()
		return o
	}

	o.HTTPStatus = &status
	switch {
	case status >= 200 && status < 300:
		o.Kind = KindSuccess
		o.Reason = ReasonNone
	case status >= 300 && status < 400:
		o.Kind = KindTerminal
		o.Reason = ReasonNonTwoXX
	case status == 408 || status == 429:
		o.Kind = KindRetryable
		o.Reason = ReasonTransientClient
	case status >= 400 && status < 500:
		o.Kind = KindTerminal
		o.Reason = ReasonClientError
	case status >= 500 && status < 600:
		o.Kind = KindRetryable
		o.Reason = ReasonServerError
	default:
		o.Kind = KindRetryable
		o.Reason = ReasonSystem
	}
	return o
}
