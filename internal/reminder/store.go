package reminder

import (
	"context"
	"time"
)

// Store is the backend-agnostic contract for a reminders store. The MCP
// server only ever talks to this interface; main wires in a concrete
// backend at startup.
//
// Implementations must be safe for concurrent tool invocations and must
// report failures by wrapping the sentinel errors in this package.
type Store interface {
	// Lists enumerates every reminder list the store exposes.
	Lists(ctx context.Context) ([]List, error)

	// Reminders returns the reminders matching f. An unknown f.ListName
	// fails with ErrListNotFound.
	Reminders(ctx context.Context, f Filter) ([]Reminder, error)

	// Create adds a new reminder and returns it with its assigned ID.
	Create(ctx context.Context, req CreateRequest) (*Reminder, error)

	// Update applies the non-nil fields to a reminder and returns the
	// updated state.
	Update(ctx context.Context, id string, fields UpdateFields) (*Reminder, error)

	// Complete marks a reminder as completed. Completing a reminder that
	// is already completed succeeds and leaves it completed.
	Complete(ctx context.Context, id string) (*Reminder, error)

	// Delete removes a reminder permanently.
	Delete(ctx context.Context, id string) error

	// Close releases the store handle.
	Close() error
}

// UpdateFields holds optional fields for a partial update. Nil fields are
// left untouched; Priority is a native 0-9 ordinal.
type UpdateFields struct {
	Title     *string
	Notes     *string
	DueDate   *time.Time
	Priority  *int
	Completed *bool
	ListName  *string
}
