package notiflog

import (
	"time"

	"github.com/joshjon/relay/internal/notification"
)

// Default truncation limits (spec §6 "log truncation limits"), used when
// NewEntry is called with a non-positive limit.
const (
	DefaultMaxResponseBodyLen = 2000
	DefaultMaxErrorMessageLen = 1000
)

// Entry is a single per-attempt record (spec §3 "Attempt log"). Append-only:
// once written an entry is never mutated.
type Entry struct {
	ID            EntryID
	TaskID        notification.TaskID
	AttemptNumber int
	HTTPStatus    *int
	ResponseBody  string
	ErrorMessage  string
	LatencyMs     int64
	Success       bool
	CreatedAt     time.Time
}

// NewEntry constructs an Entry, truncating responseBody/errorMessage to
// responseBodyLimit/errMsgLimit so truncation is applied uniformly
// regardless of which repository backend persists it. A non-positive limit
// falls back to DefaultMaxResponseBodyLen/DefaultMaxErrorMessageLen.
func NewEntry(taskID notification.TaskID, attemptNumber int, httpStatus *int, responseBody, errMsg string, latencyMs int64, success bool, responseBodyLimit, errMsgLimit int) *Entry {
	if responseBodyLimit <= 0 {
		responseBodyLimit = DefaultMaxResponseBodyLen
	}
	if errMsgLimit <= 0 {
		errMsgLimit = DefaultMaxErrorMessageLen
	}
	return &Entry{
		ID:            NewEntryID(),
		TaskID:        taskID,
		AttemptNumber: attemptNumber,
		HTTPStatus:    httpStatus,
		ResponseBody:  truncate(responseBody, responseBodyLimit),
		ErrorMessage:  truncate(errMsg, errMsgLimit),
		LatencyMs:     latencyMs,
		Success:       success,
		CreatedAt:     time.Now().UTC(),
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
