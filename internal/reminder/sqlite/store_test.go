package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pongsapakl/mcp-reminders/internal/reminder"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "reminders.db")
	s, err := NewStore(dbPath, "", zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// addList inserts an extra list row directly; the tool surface itself has
// no list-creation operation.
func addList(t *testing.T, s *Store, name string) {
	t.Helper()
	_, err := s.db.Exec(`INSERT INTO lists (id, name, account) VALUES (?, ?, ?)`,
		uuid.NewString(), name, localAccount)
	if err != nil {
		t.Fatalf("Failed to insert list %q: %v", name, err)
	}
}

func datePtr(t time.Time) *time.Time { return &t }

func TestStore_SeedsDefaultList(t *testing.T) {
	s := newTestStore(t)

	lists, err := s.Lists(context.Background())
	if err != nil {
		t.Fatalf("Lists failed: %v", err)
	}
	if len(lists) != 1 {
		t.Fatalf("Expected 1 list, got %d", len(lists))
	}
	if lists[0].Name != "Reminders" {
		t.Errorf("Expected default list name Reminders, got %q", lists[0].Name)
	}
	if lists[0].Account != localAccount {
		t.Errorf("Expected account %q, got %q", localAccount, lists[0].Account)
	}
}

func TestStore_CreateAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	due := time.Date(2026, 1, 16, 14, 0, 0, 0, time.UTC)
	created, err := s.Create(ctx, reminder.CreateRequest{
		Title:    "Call mom",
		Notes:    "about the trip",
		DueDate:  datePtr(due),
		Priority: 5,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Error("Expected assigned ID")
	}

	items, err := s.Reminders(ctx, reminder.Filter{})
	if err != nil {
		t.Fatalf("Reminders failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 reminder, got %d", len(items))
	}

	got := items[0]
	if got.Title != "Call mom" {
		t.Errorf("Expected title Call mom, got %q", got.Title)
	}
	if got.Notes != "about the trip" {
		t.Errorf("Expected notes preserved, got %q", got.Notes)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("Expected due date %v, got %v", due, got.DueDate)
	}
	if got.Priority != "medium" {
		t.Errorf("Expected priority medium, got %q", got.Priority)
	}
	if got.List != "Reminders" {
		t.Errorf("Expected default list, got %q", got.List)
	}
	if got.Completed {
		t.Error("Expected new reminder to be incomplete")
	}
}

func TestStore_CreateUnknownList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, reminder.CreateRequest{Title: "orphan", ListName: "Nope"})
	if !errors.Is(err, reminder.ErrListNotFound) {
		t.Fatalf("Expected ErrListNotFound, got %v", err)
	}

	items, err := s.Reminders(ctx, reminder.Filter{})
	if err != nil {
		t.Fatalf("Reminders failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no reminders after failed create, got %d", len(items))
	}
}

func TestStore_DateRangeFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	day := func(d int) time.Time {
		return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC)
	}
	fixtures := []struct {
		title string
		due   *time.Time
	}{
		{"before", datePtr(day(5))},
		{"start", datePtr(day(10))},
		{"end", datePtr(day(20))},
		{"after", datePtr(day(25))},
		{"floating", nil},
	}
	for _, fx := range fixtures {
		if _, err := s.Create(ctx, reminder.CreateRequest{Title: fx.title, DueDate: fx.due}); err != nil {
			t.Fatalf("Create %q failed: %v", fx.title, err)
		}
	}

	items, err := s.Reminders(ctx, reminder.Filter{
		StartDate: datePtr(day(10)),
		EndDate:   datePtr(day(20)),
	})
	if err != nil {
		t.Fatalf("Reminders failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 reminders in range, got %d", len(items))
	}
	if items[0].Title != "start" || items[1].Title != "end" {
		t.Errorf("Expected [start end], got [%s %s]", items[0].Title, items[1].Title)
	}

	all, err := s.Reminders(ctx, reminder.Filter{})
	if err != nil {
		t.Fatalf("Reminders failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("Expected 5 reminders without bounds, got %d", len(all))
	}
}

func TestStore_CompletedFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	open, err := s.Create(ctx, reminder.CreateRequest{Title: "open"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	done, err := s.Create(ctx, reminder.CreateRequest{Title: "done"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.Complete(ctx, done.ID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	items, err := s.Reminders(ctx, reminder.Filter{})
	if err != nil {
		t.Fatalf("Reminders failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != open.ID {
		t.Fatalf("Expected only the open reminder, got %d items", len(items))
	}

	items, err = s.Reminders(ctx, reminder.Filter{IncludeCompleted: true})
	if err != nil {
		t.Fatalf("Reminders failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("Expected 2 reminders with IncludeCompleted, got %d", len(items))
	}
}

func TestStore_UpdatePartial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, reminder.CreateRequest{Title: "old title", Notes: "keep these"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	newTitle := "new title"
	updated, err := s.Update(ctx, created.ID, reminder.UpdateFields{Title: &newTitle})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "new title" {
		t.Errorf("Expected updated title, got %q", updated.Title)
	}
	if updated.Notes != "keep these" {
		t.Errorf("Expected notes untouched, got %q", updated.Notes)
	}
}

func TestStore_MoveBetweenLists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addList(t, s, "Work")

	created, err := s.Create(ctx, reminder.CreateRequest{Title: "standup"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	target := "Work"
	moved, err := s.Update(ctx, created.ID, reminder.UpdateFields{ListName: &target})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if moved.List != "Work" {
		t.Errorf("Expected list Work, got %q", moved.List)
	}

	missing := "Nope"
	_, err = s.Update(ctx, created.ID, reminder.UpdateFields{ListName: &missing})
	if !errors.Is(err, reminder.ErrListNotFound) {
		t.Errorf("Expected ErrListNotFound, got %v", err)
	}
}

func TestStore_CompleteIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, reminder.CreateRequest{Title: "water plants"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		r, err := s.Complete(ctx, created.ID)
		if err != nil {
			t.Fatalf("Complete attempt %d failed: %v", i+1, err)
		}
		if !r.Completed {
			t.Errorf("Attempt %d: expected completed reminder", i+1)
		}
	}
}

func TestStore_DeleteThenUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, reminder.CreateRequest{Title: "gone"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	title := "resurrect"
	if _, err := s.Update(ctx, created.ID, reminder.UpdateFields{Title: &title}); !errors.Is(err, reminder.ErrReminderNotFound) {
		t.Errorf("Expected ErrReminderNotFound on update, got %v", err)
	}
	if _, err := s.Complete(ctx, created.ID); !errors.Is(err, reminder.ErrReminderNotFound) {
		t.Errorf("Expected ErrReminderNotFound on complete, got %v", err)
	}
	if err := s.Delete(ctx, created.ID); !errors.Is(err, reminder.ErrReminderNotFound) {
		t.Errorf("Expected ErrReminderNotFound on second delete, got %v", err)
	}
}
