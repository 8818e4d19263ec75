// Package caldav implements the reminders store against a CalDAV account
// such as iCloud, where reminder lists are VTODO-capable calendars and
// reminders are VTODO objects. It covers hosts without a native Reminders
// store; iCloud accounts need an app-specific password.
package caldav

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pongsapakl/mcp-reminders/internal/reminder"
)

const (
	// Apple iCloud CalDAV endpoint.
	DefaultiCloudURL = "https://caldav.icloud.com"

	requestTimeout = 30 * time.Second
)

// Config holds the CalDAV account settings.
type Config struct {
	URL      string
	Username string
	Password string
	// DefaultList receives reminders created without an explicit list.
	// Empty means the first discovered task calendar.
	DefaultList string
}

// Store is the CalDAV backend.
type Store struct {
	cfg Config
	log zerolog.Logger

	mu     sync.Mutex
	client *caldav.Client
}

// NewStore creates the CalDAV backend. The server is not contacted until
// the first operation.
func NewStore(cfg Config, log zerolog.Logger) (*Store, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultiCloudURL
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("caldav: username and password are required")
	}
	return &Store{cfg: cfg, log: log}, nil
}

// Close is a no-op; HTTP connections are managed by the transport.
func (s *Store) Close() error {
	return nil
}

// connect establishes the CalDAV client on first use.
func (s *Store) connect() (*caldav.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: s.cfg.Username,
			password: s.cfg.Password,
		},
		Timeout: requestTimeout,
	}

	client, err := caldav.NewClient(httpClient, s.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to CalDAV: %v", reminder.ErrStore, err)
	}

	s.log.Debug().Str("url", s.cfg.URL).Msg("caldav client connected")
	s.client = client
	return client, nil
}

// basicAuthTransport adds Basic Auth to HTTP requests.
type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

func (s *Store) Lists(ctx context.Context) ([]reminder.List, error) {
	cals, err := s.todoCalendars(ctx)
	if err != nil {
		return nil, err
	}

	lists := make([]reminder.List, 0, len(cals))
	for _, cal := range cals {
		lists = append(lists, reminder.List{
			ID:      cal.Path,
			Name:    cal.Name,
			Account: s.cfg.Username,
		})
	}
	return lists, nil
}

func (s *Store) Reminders(ctx context.Context, f reminder.Filter) ([]reminder.Reminder, error) {
	cals, err := s.todoCalendars(ctx)
	if err != nil {
		return nil, err
	}
	if f.ListName != "" {
		cal := findCalendar(cals, f.ListName)
		if cal == nil {
			return nil, fmt.Errorf("%w: no task calendar named %q", reminder.ErrListNotFound, f.ListName)
		}
		cals = []caldav.Calendar{*cal}
	}

	client, err := s.connect()
	if err != nil {
		return nil, err
	}

	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name:  ical.CompCalendar,
			Comps: []caldav.CompFilter{{Name: ical.CompToDo}},
		},
	}

	var items []reminder.Reminder
	for _, cal := range cals {
		objs, err := client.QueryCalendar(ctx, cal.Path, query)
		if err != nil {
			return nil, classify("query calendar", err)
		}
		for i := range objs {
			r, err := todoFromObject(&objs[i], cal.Name)
			if err != nil {
				s.log.Debug().Err(err).Str("path", objs[i].Path).Msg("skipping unreadable calendar object")
				continue
			}
			items = append(items, *r)
		}
	}
	return f.Apply(items), nil
}

func (s *Store) Create(ctx context.Context, req reminder.CreateRequest) (*reminder.Reminder, error) {
	cal, err := s.calendarByName(ctx, req.ListName)
	if err != nil {
		return nil, err
	}
	client, err := s.connect()
	if err != nil {
		return nil, err
	}

	uid := uuid.NewString()
	if _, err := client.PutCalendarObject(ctx, objectPath(cal.Path, uid), newTodoCalendar(uid, req)); err != nil {
		return nil, classify("create reminder", err)
	}

	return &reminder.Reminder{
		ID:       uid,
		Title:    req.Title,
		Notes:    req.Notes,
		DueDate:  req.DueDate,
		Priority: reminder.FormatPriority(req.Priority),
		List:     cal.Name,
	}, nil
}

func (s *Store) Update(ctx context.Context, id string, fields reminder.UpdateFields) (*reminder.Reminder, error) {
	obj, cal, err := s.findTodo(ctx, id)
	if err != nil {
		return nil, err
	}

	todo := todoComponent(obj.Data)
	if todo == nil {
		return nil, fmt.Errorf("%w: object %s has no VTODO component", reminder.ErrStore, obj.Path)
	}
	applyFields(todo, fields)

	target := cal
	if fields.ListName != nil && *fields.ListName != cal.Name {
		target, err = s.calendarByName(ctx, *fields.ListName)
		if err != nil {
			return nil, err
		}
	}

	client, err := s.connect()
	if err != nil {
		return nil, err
	}

	if target.Path == cal.Path {
		if _, err := client.PutCalendarObject(ctx, obj.Path, obj.Data); err != nil {
			return nil, classify("update reminder", err)
		}
	} else {
		// Moving between calendars is a put into the target followed by a
		// delete of the original object.
		if _, err := client.PutCalendarObject(ctx, objectPath(target.Path, id), obj.Data); err != nil {
			return nil, classify("move reminder", err)
		}
		if err := client.RemoveAll(ctx, obj.Path); err != nil {
			return nil, classify("remove moved reminder", err)
		}
	}

	return todoFromComponent(todo, target.Name)
}

func (s *Store) Complete(ctx context.Context, id string) (*reminder.Reminder, error) {
	obj, cal, err := s.findTodo(ctx, id)
	if err != nil {
		return nil, err
	}

	todo := todoComponent(obj.Data)
	if todo == nil {
		return nil, fmt.Errorf("%w: object %s has no VTODO component", reminder.ErrStore, obj.Path)
	}
	setCompleted(todo, true)

	client, err := s.connect()
	if err != nil {
		return nil, err
	}
	if _, err := client.PutCalendarObject(ctx, obj.Path, obj.Data); err != nil {
		return nil, classify("complete reminder", err)
	}

	return todoFromComponent(todo, cal.Name)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	obj, _, err := s.findTodo(ctx, id)
	if err != nil {
		return err
	}

	client, err := s.connect()
	if err != nil {
		return err
	}
	if err := client.RemoveAll(ctx, obj.Path); err != nil {
		return classify("delete reminder", err)
	}
	return nil
}

// todoCalendars discovers the calendars that can hold VTODO components.
func (s *Store) todoCalendars(ctx context.Context) ([]caldav.Calendar, error) {
	client, err := s.connect()
	if err != nil {
		return nil, err
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, classify("find principal", err)
	}
	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, classify("find calendar home set", err)
	}
	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, classify("find calendars", err)
	}

	var out []caldav.Calendar
	for _, cal := range cals {
		if supportsTodos(cal) {
			out = append(out, cal)
		}
	}
	return out, nil
}

// calendarByName resolves an exact list name. An empty name selects the
// configured default list, falling back to the first discovered one.
func (s *Store) calendarByName(ctx context.Context, name string) (*caldav.Calendar, error) {
	cals, err := s.todoCalendars(ctx)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = s.cfg.DefaultList
	}
	if name == "" {
		if len(cals) == 0 {
			return nil, fmt.Errorf("%w: account has no task calendars", reminder.ErrListNotFound)
		}
		return &cals[0], nil
	}

	if cal := findCalendar(cals, name); cal != nil {
		return cal, nil
	}
	return nil, fmt.Errorf("%w: no task calendar named %q", reminder.ErrListNotFound, name)
}

// findTodo locates a VTODO by UID across every task calendar. The UID is
// re-checked client-side because not every server implements text-match
// filtering.
func (s *Store) findTodo(ctx context.Context, uid string) (*caldav.CalendarObject, *caldav.Calendar, error) {
	client, err := s.connect()
	if err != nil {
		return nil, nil, err
	}
	cals, err := s.todoCalendars(ctx)
	if err != nil {
		return nil, nil, err
	}

	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name: ical.CompToDo,
				Props: []caldav.PropFilter{{
					Name:      ical.PropUID,
					TextMatch: &caldav.TextMatch{Text: uid},
				}},
			}},
		},
	}

	for i := range cals {
		objs, err := client.QueryCalendar(ctx, cals[i].Path, query)
		if err != nil {
			return nil, nil, classify("query calendar", err)
		}
		for j := range objs {
			if todoUID(&objs[j]) == uid {
				return &objs[j], &cals[i], nil
			}
		}
	}
	return nil, nil, fmt.Errorf("%w: no reminder with id %q", reminder.ErrReminderNotFound, uid)
}

// supportsTodos reports whether the calendar accepts VTODO components. An
// empty component set means the server did not advertise one; keep those.
func supportsTodos(cal caldav.Calendar) bool {
	if len(cal.SupportedComponentSet) == 0 {
		return true
	}
	for _, comp := range cal.SupportedComponentSet {
		if comp == ical.CompToDo {
			return true
		}
	}
	return false
}

func findCalendar(cals []caldav.Calendar, name string) *caldav.Calendar {
	for i := range cals {
		if cals[i].Name == name {
			return &cals[i]
		}
	}
	return nil
}

func objectPath(calendarPath, uid string) string {
	if !strings.HasSuffix(calendarPath, "/") {
		calendarPath += "/"
	}
	return calendarPath + uid + ".ics"
}

// classify wraps a CalDAV failure with the matching sentinel. Auth
// failures surface as permission errors with a credentials hint.
func classify(op string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "401") || strings.Contains(msg, "Unauthorized") ||
		strings.Contains(msg, "403") || strings.Contains(msg, "Forbidden") {
		return fmt.Errorf("%w: %s: %v (check the CalDAV username and app-specific password)", reminder.ErrPermissionDenied, op, err)
	}
	return fmt.Errorf("%w: %s: %v", reminder.ErrStore, op, err)
}
