package eventkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pongsapakl/mcp-reminders/internal/reminder"
)

type bridgeCall struct {
	op   string
	args map[string]any
}

// fakeBridge records bridge invocations and answers them through a
// test-provided handler, standing in for osascript.
type fakeBridge struct {
	calls   []bridgeCall
	handler func(op string, args map[string]any) ([]byte, error)
}

func newFakeStore(t *testing.T, handler func(op string, args map[string]any) ([]byte, error)) (*Store, *fakeBridge) {
	t.Helper()
	fb := &fakeBridge{handler: handler}
	s := NewStore(zerolog.Nop())
	s.run = func(_ context.Context, op string, args any) ([]byte, error) {
		var m map[string]any
		if args != nil {
			data, err := json.Marshal(args)
			if err != nil {
				t.Fatalf("Failed to marshal bridge args: %v", err)
			}
			if err := json.Unmarshal(data, &m); err != nil {
				t.Fatalf("Failed to decode bridge args: %v", err)
			}
		}
		fb.calls = append(fb.calls, bridgeCall{op: op, args: m})
		return fb.handler(op, m)
	}
	return s, fb
}

func (fb *fakeBridge) countOps(op string) int {
	n := 0
	for _, c := range fb.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (fb *fakeBridge) lastArgs(op string) map[string]any {
	for i := len(fb.calls) - 1; i >= 0; i-- {
		if fb.calls[i].op == op {
			return fb.calls[i].args
		}
	}
	return nil
}

func okBridge(op string, _ map[string]any) ([]byte, error) {
	switch op {
	case "authorize":
		return []byte(`{"ok":true}`), nil
	case "lists":
		return []byte(`{"lists":[{"id":"cal-1","name":"Reminders","account":"iCloud"}]}`), nil
	case "reminders":
		return []byte(`{"reminders":[]}`), nil
	default:
		return []byte(`{"ok":true}`), nil
	}
}

func TestStore_AuthorizeOnce(t *testing.T) {
	s, fb := newFakeStore(t, okBridge)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		lists, err := s.Lists(ctx)
		if err != nil {
			t.Fatalf("Lists failed: %v", err)
		}
		if len(lists) != 1 || lists[0].Name != "Reminders" {
			t.Fatalf("Unexpected lists: %+v", lists)
		}
	}

	if got := fb.countOps("authorize"); got != 1 {
		t.Errorf("Expected 1 authorize call, got %d", got)
	}
	if got := fb.countOps("lists"); got != 2 {
		t.Errorf("Expected 2 lists calls, got %d", got)
	}
}

func TestStore_DeniedAccessRetried(t *testing.T) {
	denied := true
	s, fb := newFakeStore(t, func(op string, args map[string]any) ([]byte, error) {
		if op == "authorize" && denied {
			return []byte(`{"error":{"code":"permission_denied","message":"Not authorized to send Apple events to Reminders."}}`), nil
		}
		return okBridge(op, args)
	})
	ctx := context.Background()

	if _, err := s.Lists(ctx); !errors.Is(err, reminder.ErrPermissionDenied) {
		t.Fatalf("Expected ErrPermissionDenied, got %v", err)
	}

	denied = false
	if _, err := s.Lists(ctx); err != nil {
		t.Fatalf("Expected success after grant, got %v", err)
	}

	if got := fb.countOps("authorize"); got != 2 {
		t.Errorf("Expected 2 authorize calls, got %d", got)
	}
}

func TestStore_ErrorMapping(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"permission_denied", reminder.ErrPermissionDenied},
		{"list_not_found", reminder.ErrListNotFound},
		{"reminder_not_found", reminder.ErrReminderNotFound},
		{"anything-else", reminder.ErrStore},
	}

	for _, tt := range tests {
		s, _ := newFakeStore(t, func(op string, args map[string]any) ([]byte, error) {
			if op == "authorize" {
				return okBridge(op, args)
			}
			return []byte(fmt.Sprintf(`{"error":{"code":%q,"message":"boom"}}`, tt.code)), nil
		})

		_, err := s.Reminders(context.Background(), reminder.Filter{})
		if !errors.Is(err, tt.want) {
			t.Errorf("code %s: expected %v, got %v", tt.code, tt.want, err)
		}
	}
}

func TestStore_BadBridgeOutput(t *testing.T) {
	s, _ := newFakeStore(t, func(string, map[string]any) ([]byte, error) {
		return []byte("execution error: something broke"), nil
	})

	_, err := s.Lists(context.Background())
	if !errors.Is(err, reminder.ErrStore) {
		t.Errorf("Expected ErrStore, got %v", err)
	}
}

func TestStore_RemindersDecodeAndFilter(t *testing.T) {
	payload := `{"reminders":[
		{"id":"r-1","title":"Call mom","notes":"about the trip","due":"2026-01-16T07:00:00.000Z","priority":5,"completed":false,"list":"Reminders"},
		{"id":"r-2","title":"already done","priority":0,"completed":true,"list":"Reminders"},
		{"id":"r-3","title":"floating","priority":0,"completed":false,"list":"Reminders"}
	]}`
	s, fb := newFakeStore(t, func(op string, args map[string]any) ([]byte, error) {
		if op == "reminders" {
			return []byte(payload), nil
		}
		return okBridge(op, args)
	})

	items, err := s.Reminders(context.Background(), reminder.Filter{ListName: "Reminders"})
	if err != nil {
		t.Fatalf("Reminders failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected completed reminder filtered out, got %d items", len(items))
	}

	got := items[0]
	if got.Title != "Call mom" {
		t.Errorf("Expected title Call mom, got %q", got.Title)
	}
	if got.Priority != "medium" {
		t.Errorf("Expected priority medium, got %q", got.Priority)
	}
	want := time.Date(2026, 1, 16, 7, 0, 0, 0, time.UTC)
	if got.DueDate == nil || !got.DueDate.Equal(want) {
		t.Errorf("Expected due date %v, got %v", want, got.DueDate)
	}

	args := fb.lastArgs("reminders")
	if args["list"] != "Reminders" {
		t.Errorf("Expected list scope in bridge args, got %v", args)
	}
}

func TestStore_CreateArgs(t *testing.T) {
	s, fb := newFakeStore(t, func(op string, args map[string]any) ([]byte, error) {
		if op == "create" {
			return []byte(`{"reminder":{"id":"r-9","title":"bare","priority":0,"completed":false,"list":"Reminders"}}`), nil
		}
		return okBridge(op, args)
	})

	created, err := s.Create(context.Background(), reminder.CreateRequest{Title: "bare"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Title != "bare" {
		t.Errorf("Expected title bare, got %q", created.Title)
	}

	args := fb.lastArgs("create")
	if args["title"] != "bare" {
		t.Errorf("Expected title in args, got %v", args)
	}
	for _, key := range []string{"notes", "priority", "due", "list"} {
		if _, ok := args[key]; ok {
			t.Errorf("Expected %q omitted for zero value, got %v", key, args[key])
		}
	}
}

func TestStore_UpdateSendsOnlySetFields(t *testing.T) {
	s, fb := newFakeStore(t, func(op string, args map[string]any) ([]byte, error) {
		if op == "update" {
			return []byte(`{"reminder":{"id":"r-1","title":"call","notes":"","priority":0,"completed":false,"list":"Reminders"}}`), nil
		}
		return okBridge(op, args)
	})

	empty := ""
	if _, err := s.Update(context.Background(), "r-1", reminder.UpdateFields{Notes: &empty}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	args := fb.lastArgs("update")
	if args["id"] != "r-1" {
		t.Errorf("Expected id in args, got %v", args)
	}
	set, ok := args["set"].(map[string]any)
	if !ok {
		t.Fatalf("Expected set map in args, got %T", args["set"])
	}
	if len(set) != 1 {
		t.Errorf("Expected exactly 1 set field, got %v", set)
	}
	if v, ok := set["notes"]; !ok || v != "" {
		t.Errorf("Expected empty notes in set, got %v", set)
	}
}
