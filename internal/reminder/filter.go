package reminder

import (
	"sort"
	"time"
)

// Filter narrows a reminders query. Zero-value fields are unconstrained;
// set fields combine with AND semantics.
type Filter struct {
	ListName         string
	StartDate        *time.Time
	EndDate          *time.Time
	IncludeCompleted bool
}

// Matches reports whether r passes the completion and due-date predicates.
// Date bounds are inclusive at both ends. A reminder without a due date
// never matches a date-bounded filter. List scoping is left to the
// backend, which has to resolve the name anyway.
func (f Filter) Matches(r Reminder) bool {
	if r.Completed && !f.IncludeCompleted {
		return false
	}
	if f.StartDate != nil || f.EndDate != nil {
		if r.DueDate == nil {
			return false
		}
		if f.StartDate != nil && r.DueDate.Before(*f.StartDate) {
			return false
		}
		if f.EndDate != nil && r.DueDate.After(*f.EndDate) {
			return false
		}
	}
	return true
}

// Apply returns the reminders matching f, preserving input order. Every
// backend funnels its results through here so that filtering behaves
// identically regardless of where the data came from.
func (f Filter) Apply(items []Reminder) []Reminder {
	out := make([]Reminder, 0, len(items))
	for _, r := range items {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// SortLists orders lists by name, then by ID for duplicate names, so that
// repeated enumerations come back in the same order no matter how the
// backend iterates its accounts.
func SortLists(lists []List) {
	sort.Slice(lists, func(i, j int) bool {
		if lists[i].Name != lists[j].Name {
			return lists[i].Name < lists[j].Name
		}
		return lists[i].ID < lists[j].ID
	})
}
