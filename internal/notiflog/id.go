package notiflog

import (
	"github.com/joshjon/kit/id"
	"go.jetify.com/typeid"
)

type entryPrefix struct{}

func (entryPrefix) Prefix() string { return "log" }

// EntryID is the unique identifier for an attempt-log row. It is internal
// bookkeeping only, distinct from the task id the row references.
type EntryID struct {
	typeid.TypeID[entryPrefix]
}

// NewEntryID generates a new unique EntryID.
func NewEntryID() EntryID {
	return id.New[EntryID]()
}

// ParseEntryID parses a string into an EntryID.
func ParseEntryID(s string) (EntryID, error) {
	return id.Parse[EntryID](s)
}
