package notification

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// TaskID is the unique identifier for a Task. It is a plain UUID, not a
// prefixed identifier: callers submit and receive it as-is on the wire.
type TaskID struct {
	val uuid.UUID
}

// NewTaskID generates a fresh random TaskID.
func NewTaskID() TaskID {
	return TaskID{val: uuid.New()}
}

// ParseTaskID parses a string into a TaskID.
func ParseTaskID(s string) (TaskID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return TaskID{}, fmt.Errorf("invalid task id %q: %w", s, err)
	}
	return TaskID{val: v}, nil
}

// MustParseTaskID parses a string into a TaskID, panicking on failure.
func MustParseTaskID(s string) TaskID {
	id, err := ParseTaskID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the canonical UUID string representation.
func (id TaskID) String() string {
	return id.val.String()
}

// IsZero returns true if the TaskID is the zero value.
func (id TaskID) IsZero() bool {
	return id.val == uuid.Nil
}

// MarshalJSON implements json.Marshaler.
func (id TaskID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.val.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *TaskID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*id = TaskID{}
		return nil
	}
	parsed, err := ParseTaskID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
