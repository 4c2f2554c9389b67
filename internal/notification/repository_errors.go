package notification

import "github.com/joshjon/kit/errtag"

// ErrTagTaskNotFound indicates a task was not found.
type ErrTagTaskNotFound struct{ errtag.NotFound }

func (ErrTagTaskNotFound) Msg() string { return "task not found" }

func (e ErrTagTaskNotFound) Unwrap() error {
	return errtag.Tag[errtag.NotFound](e.Cause())
}

// ErrTagDuplicateTaskID indicates an insert collided with an existing taskId.
type ErrTagDuplicateTaskID struct{ errtag.Conflict }

func (ErrTagDuplicateTaskID) Msg() string { return "duplicate task id" }

func (e ErrTagDuplicateTaskID) Unwrap() error {
	return errtag.Tag[errtag.Conflict](e.Cause())
}

// Store-unavailable errors (timeouts, connection loss) are left tagged by
// the repository's underlying driver helper (tx.TagPGXTimeoutErr for
// Postgres, the sqlite equivalent) rather than re-tagged here; the HTTP
// layer treats any untagged error as a generic 500.
