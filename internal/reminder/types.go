package reminder

import "time"

// Priority ordinals on the native Reminders scale. The store collapses
// 1-4 into high and 6-9 into low; these are the canonical representatives
// used when translating from wire names.
const (
	PriorityNone   = 0
	PriorityHigh   = 1
	PriorityMedium = 5
	PriorityLow    = 9
)

// List represents a reminder list (a calendar in the native store).
// Lists are enumerated only; creating or mutating them is out of scope.
type List struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Account string `json:"account,omitempty"`
}

// Reminder represents a single reminder item.
//
// ID is an opaque token issued by the backing store. The native store does
// not guarantee that it survives the reminder's lifetime, so callers must
// treat it as a session-scoped lookup key and re-query via list_reminders
// instead of caching identifiers.
type Reminder struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Priority  string     `json:"priority"`
	Completed bool       `json:"completed"`
	List      string     `json:"list,omitempty"`
}

// CreateRequest holds the fields for a new reminder. Priority is a native
// 0-9 ordinal. An empty ListName targets the backend's default list.
type CreateRequest struct {
	Title    string
	Notes    string
	DueDate  *time.Time
	Priority int
	ListName string
}
