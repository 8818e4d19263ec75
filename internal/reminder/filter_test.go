package reminder

import (
	"testing"
	"time"
)

func datePtr(t time.Time) *time.Time {
	return &t
}

func TestFilterMatches_DateRange(t *testing.T) {
	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  *time.Time
		want bool
	}{
		{"inside range", datePtr(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)), true},
		{"equal to start", datePtr(start), true},
		{"equal to end", datePtr(end), true},
		{"before start", datePtr(start.Add(-time.Second)), false},
		{"after end", datePtr(end.Add(time.Second)), false},
		{"no due date", nil, false},
	}

	f := Filter{StartDate: &start, EndDate: &end}
	for _, tt := range tests {
		r := Reminder{Title: tt.name, DueDate: tt.due}
		if got := f.Matches(r); got != tt.want {
			t.Errorf("%s: Matches = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFilterMatches_OpenEnded(t *testing.T) {
	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	f := Filter{StartDate: &start}
	if f.Matches(Reminder{DueDate: nil}) {
		t.Error("Expected reminder without due date to be excluded when a bound is set")
	}
	if !f.Matches(Reminder{DueDate: datePtr(start.Add(time.Hour))}) {
		t.Error("Expected reminder after start to match open-ended filter")
	}

	// No bounds at all: items without a due date match.
	if !(Filter{}).Matches(Reminder{}) {
		t.Error("Expected unbounded filter to match reminder without due date")
	}
}

func TestFilterMatches_Completed(t *testing.T) {
	done := Reminder{Title: "done", Completed: true}

	if (Filter{}).Matches(done) {
		t.Error("Expected completed reminder to be excluded by default")
	}
	if !(Filter{IncludeCompleted: true}).Matches(done) {
		t.Error("Expected completed reminder to match with IncludeCompleted")
	}
}

func TestFilterApply_PreservesOrder(t *testing.T) {
	due := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	items := []Reminder{
		{Title: "first", DueDate: datePtr(due)},
		{Title: "done", Completed: true},
		{Title: "second", DueDate: datePtr(due.Add(time.Hour))},
	}

	got := Filter{}.Apply(items)
	if len(got) != 2 {
		t.Fatalf("Expected 2 reminders, got %d", len(got))
	}
	if got[0].Title != "first" || got[1].Title != "second" {
		t.Errorf("Expected order [first second], got [%s %s]", got[0].Title, got[1].Title)
	}
}

func TestSortLists(t *testing.T) {
	lists := []List{
		{ID: "c", Name: "Work"},
		{ID: "b", Name: "Groceries"},
		{ID: "a", Name: "Work"},
	}

	SortLists(lists)

	want := []string{"b", "a", "c"}
	for i, id := range want {
		if lists[i].ID != id {
			t.Errorf("lists[%d].ID = %q, want %q", i, lists[i].ID, id)
		}
	}
}
