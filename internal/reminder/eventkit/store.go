// Package eventkit talks to the native macOS Reminders store through a
// small JavaScript-for-Automation bridge executed with osascript. The
// bridge always prints a JSON envelope, so errors can be classified
// without scraping osascript's stderr.
package eventkit

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pongsapakl/mcp-reminders/internal/reminder"
)

//go:embed bridge.js
var bridgeScript string

// runFunc executes one bridge op and returns its stdout. Tests swap in a
// fake; production uses osascript.
type runFunc func(ctx context.Context, op string, args any) ([]byte, error)

// Store is the native macOS backend. A single mutex serializes bridge
// invocations; the Reminders scripting target is not documented as safe
// for concurrent commands.
type Store struct {
	log zerolog.Logger

	mu         sync.Mutex
	authorized bool
	run        runFunc
}

// NewStore creates the native backend. No Apple event is sent until the
// first operation, so constructing the store never triggers the consent
// dialog.
func NewStore(log zerolog.Logger) *Store {
	s := &Store{log: log}
	s.run = s.runOsascript
	return s
}

// Close is a no-op; the bridge holds nothing between invocations.
func (s *Store) Close() error {
	return nil
}

// ensureAccess performs the authorization handshake. The first Apple
// event blocks until the user answers the system consent dialog. A grant
// is cached for the process lifetime; a denial is probed again on the
// next operation so flipping the setting does not require a restart.
// Callers must hold s.mu.
func (s *Store) ensureAccess(ctx context.Context) error {
	if s.authorized {
		return nil
	}
	s.log.Debug().Msg("requesting reminders access")
	if _, err := s.call(ctx, "authorize", nil); err != nil {
		return err
	}
	s.authorized = true
	return nil
}

func (s *Store) Lists(ctx context.Context) ([]reminder.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureAccess(ctx); err != nil {
		return nil, err
	}

	res, err := s.call(ctx, "lists", nil)
	if err != nil {
		return nil, err
	}

	lists := make([]reminder.List, 0, len(res.Lists))
	for _, l := range res.Lists {
		lists = append(lists, reminder.List{ID: l.ID, Name: l.Name, Account: l.Account})
	}
	return lists, nil
}

func (s *Store) Reminders(ctx context.Context, f reminder.Filter) ([]reminder.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureAccess(ctx); err != nil {
		return nil, err
	}

	args := map[string]any{}
	if f.ListName != "" {
		args["list"] = f.ListName
	}

	res, err := s.call(ctx, "reminders", args)
	if err != nil {
		return nil, err
	}

	items := make([]reminder.Reminder, 0, len(res.Reminders))
	for i := range res.Reminders {
		r, err := fromBridge(&res.Reminders[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *r)
	}
	return f.Apply(items), nil
}

func (s *Store) Create(ctx context.Context, req reminder.CreateRequest) (*reminder.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureAccess(ctx); err != nil {
		return nil, err
	}

	args := map[string]any{"title": req.Title}
	if req.Notes != "" {
		args["notes"] = req.Notes
	}
	if req.Priority != 0 {
		args["priority"] = req.Priority
	}
	if req.DueDate != nil {
		args["due"] = req.DueDate.Format(time.RFC3339)
	}
	if req.ListName != "" {
		args["list"] = req.ListName
	}

	res, err := s.call(ctx, "create", args)
	if err != nil {
		return nil, err
	}
	return singleReminder(res)
}

func (s *Store) Update(ctx context.Context, id string, fields reminder.UpdateFields) (*reminder.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureAccess(ctx); err != nil {
		return nil, err
	}

	set := map[string]any{}
	if fields.Title != nil {
		set["title"] = *fields.Title
	}
	if fields.Notes != nil {
		set["notes"] = *fields.Notes
	}
	if fields.DueDate != nil {
		set["due"] = fields.DueDate.Format(time.RFC3339)
	}
	if fields.Priority != nil {
		set["priority"] = *fields.Priority
	}
	if fields.Completed != nil {
		set["completed"] = *fields.Completed
	}
	if fields.ListName != nil {
		set["list"] = *fields.ListName
	}

	res, err := s.call(ctx, "update", map[string]any{"id": id, "set": set})
	if err != nil {
		return nil, err
	}
	return singleReminder(res)
}

func (s *Store) Complete(ctx context.Context, id string) (*reminder.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureAccess(ctx); err != nil {
		return nil, err
	}

	res, err := s.call(ctx, "complete", map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	return singleReminder(res)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureAccess(ctx); err != nil {
		return err
	}

	_, err := s.call(ctx, "remove", map[string]any{"id": id})
	return err
}

// bridge wire types

type bridgeResult struct {
	Error     *bridgeError     `json:"error"`
	OK        bool             `json:"ok"`
	Lists     []bridgeList     `json:"lists"`
	Reminders []bridgeReminder `json:"reminders"`
	Reminder  *bridgeReminder  `json:"reminder"`
}

type bridgeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type bridgeList struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Account string `json:"account"`
}

type bridgeReminder struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Notes     string `json:"notes"`
	Due       string `json:"due"`
	Priority  int    `json:"priority"`
	Completed bool   `json:"completed"`
	List      string `json:"list"`
}

// call runs one bridge op and decodes its JSON envelope.
func (s *Store) call(ctx context.Context, op string, args any) (*bridgeResult, error) {
	out, err := s.run(ctx, op, args)
	if err != nil {
		return nil, err
	}

	var res bridgeResult
	if err := json.Unmarshal(bytes.TrimSpace(out), &res); err != nil {
		return nil, fmt.Errorf("%w: unexpected bridge output for %s: %v", reminder.ErrStore, op, err)
	}
	if res.Error != nil {
		return nil, bridgeErr(res.Error)
	}
	return &res, nil
}

func (s *Store) runOsascript(ctx context.Context, op string, args any) ([]byte, error) {
	argJSON := "{}"
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("%w: encode bridge args: %v", reminder.ErrStore, err)
		}
		argJSON = string(data)
	}

	s.log.Debug().Str("op", op).Msg("running reminders bridge")
	cmd := exec.CommandContext(ctx, "osascript", "-l", "JavaScript", "-e", bridgeScript, op, argJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: osascript %s: %s", reminder.ErrStore, op, msg)
	}
	return stdout.Bytes(), nil
}

// bridgeErr maps a bridge error code onto the store's sentinel errors.
func bridgeErr(e *bridgeError) error {
	switch e.Code {
	case "permission_denied":
		return fmt.Errorf("%w: %s (enable access under System Settings > Privacy & Security > Automation)", reminder.ErrPermissionDenied, e.Message)
	case "list_not_found":
		return fmt.Errorf("%w: %s", reminder.ErrListNotFound, e.Message)
	case "reminder_not_found":
		return fmt.Errorf("%w: %s", reminder.ErrReminderNotFound, e.Message)
	default:
		return fmt.Errorf("%w: %s", reminder.ErrStore, e.Message)
	}
}

func singleReminder(res *bridgeResult) (*reminder.Reminder, error) {
	if res.Reminder == nil {
		return nil, fmt.Errorf("%w: bridge returned no reminder", reminder.ErrStore)
	}
	return fromBridge(res.Reminder)
}

// fromBridge converts a bridge payload into a domain reminder. Bridge
// dates are ISO strings in UTC; they are shifted into local time so due
// dates read back on the caller's wall clock.
func fromBridge(br *bridgeReminder) (*reminder.Reminder, error) {
	r := &reminder.Reminder{
		ID:        br.ID,
		Title:     br.Title,
		Notes:     br.Notes,
		Priority:  reminder.FormatPriority(br.Priority),
		Completed: br.Completed,
		List:      br.List,
	}
	if br.Due != "" {
		t, err := time.Parse(time.RFC3339, br.Due)
		if err != nil {
			return nil, fmt.Errorf("%w: bad due date %q from bridge: %v", reminder.ErrStore, br.Due, err)
		}
		local := t.In(time.Local)
		r.DueDate = &local
	}
	return r, nil
}
