package reminder

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Priority names accepted and produced on the wire.
const (
	priorityNone   = "none"
	priorityLow    = "low"
	priorityMedium = "medium"
	priorityHigh   = "high"
)

// ParsePriority converts a wire priority into a native 0-9 ordinal. It
// accepts the names none, low, medium and high as well as a bare ordinal.
func ParsePriority(s string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case priorityNone:
		return PriorityNone, nil
	case priorityLow:
		return PriorityLow, nil
	case priorityMedium:
		return PriorityMedium, nil
	case priorityHigh:
		return PriorityHigh, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > 9 {
		return 0, fmt.Errorf("%w: priority %q (use none, low, medium, high or an ordinal 0-9)", ErrInvalidRequest, s)
	}
	return n, nil
}

// FormatPriority renders a native ordinal as a wire name. The mapping is
// lossy only where the store itself collapses ordinals: 1-4 all read back
// as high and 6-9 as low.
func FormatPriority(p int) string {
	switch {
	case p >= 1 && p <= 4:
		return priorityHigh
	case p == 5:
		return priorityMedium
	case p >= 6 && p <= 9:
		return priorityLow
	default:
		return priorityNone
	}
}

// dueDateLayouts are tried in order. Layouts without a zone are read in
// the platform's local time, matching what the native store does with
// wall-clock due dates.
var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDueDate parses an ISO-style due date from the wire. A date without
// a time component means local midnight of that day.
func ParseDueDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable date %q (use ISO format, e.g. 2026-01-16T14:00)", ErrInvalidRequest, s)
}
