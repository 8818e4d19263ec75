package reminder

import "errors"

// Error kinds surfaced to protocol clients. Backends wrap these with
// fmt.Errorf and %w so the server can classify failures with errors.Is
// while keeping the backend's detail in the message.
var (
	// ErrPermissionDenied means the OS or account has not granted access to
	// the reminders store. Backends append their own remediation hint when
	// wrapping it.
	ErrPermissionDenied = errors.New("reminders access not granted")

	// ErrListNotFound means a list name did not match any known list.
	ErrListNotFound = errors.New("reminder list not found")

	// ErrReminderNotFound means an identifier did not resolve to a live
	// reminder. Identifiers are not stable across store operations, so a
	// stale one lands here even if the reminder still exists under a new
	// identifier.
	ErrReminderNotFound = errors.New("reminder not found")

	// ErrInvalidRequest means a request field was missing or malformed.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrStore means the backing store reported an internal failure.
	ErrStore = errors.New("reminders store error")
)
