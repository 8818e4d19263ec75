// Package sqlite provides a self-contained reminders store in a local
// SQLite database. It mirrors the native store's surface (opaque string
// identifiers, a default list, 0-9 priority ordinals) so the full tool
// surface works on hosts without a Reminders store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/pongsapakl/mcp-reminders/internal/reminder"
)

const defaultListName = "Reminders"

const localAccount = "local"

// Store provides SQLite-backed storage for reminders.
type Store struct {
	db          *sql.DB
	defaultList string
	log         zerolog.Logger
}

// NewStore opens (or creates) the SQLite database at dbPath, ensures the
// schema exists and seeds the default list.
func NewStore(dbPath, defaultList string, log zerolog.Logger) (*Store, error) {
	if defaultList == "" {
		defaultList = defaultListName
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, defaultList: defaultList, log: log}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.seedDefaultList(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS lists (
			id      TEXT PRIMARY KEY,
			name    TEXT NOT NULL UNIQUE,
			account TEXT NOT NULL DEFAULT 'local'
		);

		CREATE TABLE IF NOT EXISTS reminders (
			id         TEXT PRIMARY KEY,
			list_id    TEXT NOT NULL REFERENCES lists(id),
			title      TEXT NOT NULL,
			notes      TEXT NOT NULL DEFAULT '',
			due_date   TEXT,
			priority   INTEGER NOT NULL DEFAULT 0,
			completed  INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func (s *Store) seedDefaultList() error {
	_, err := s.db.Exec(`
		INSERT INTO lists (id, name, account)
		SELECT ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM lists WHERE name = ?)
	`, uuid.NewString(), s.defaultList, localAccount, s.defaultList)
	if err != nil {
		return fmt.Errorf("failed to seed default list: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Lists(ctx context.Context) ([]reminder.List, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, account FROM lists ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list reminder lists: %v", reminder.ErrStore, err)
	}
	defer rows.Close()

	var lists []reminder.List
	for rows.Next() {
		var l reminder.List
		if err := rows.Scan(&l.ID, &l.Name, &l.Account); err != nil {
			return nil, fmt.Errorf("%w: failed to scan list: %v", reminder.ErrStore, err)
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

func (s *Store) Reminders(ctx context.Context, f reminder.Filter) ([]reminder.Reminder, error) {
	query := `
		SELECT r.id, r.title, r.notes, r.due_date, r.priority, r.completed, l.name
		FROM reminders r JOIN lists l ON l.id = r.list_id
	`
	args := []interface{}{}

	if f.ListName != "" {
		listID, err := s.resolveList(ctx, f.ListName)
		if err != nil {
			return nil, err
		}
		query += " WHERE r.list_id = ?"
		args = append(args, listID)
	}
	query += " ORDER BY r.due_date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list reminders: %v", reminder.ErrStore, err)
	}
	defer rows.Close()

	reminders, err := scanReminders(rows)
	if err != nil {
		return nil, err
	}
	return f.Apply(reminders), nil
}

func (s *Store) Create(ctx context.Context, req reminder.CreateRequest) (*reminder.Reminder, error) {
	listID, listName, err := s.resolveListWithDefault(ctx, req.ListName)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)

	var due interface{}
	if req.DueDate != nil {
		due = req.DueDate.UTC().Format(time.RFC3339)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reminders (id, list_id, title, notes, due_date, priority, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, id, listID, req.Title, req.Notes, due, req.Priority, now, now)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert reminder: %v", reminder.ErrStore, err)
	}

	return &reminder.Reminder{
		ID:       id,
		Title:    req.Title,
		Notes:    req.Notes,
		DueDate:  req.DueDate,
		Priority: reminder.FormatPriority(req.Priority),
		List:     listName,
	}, nil
}

// Update applies partial updates to a reminder.
func (s *Store) Update(ctx context.Context, id string, fields reminder.UpdateFields) (*reminder.Reminder, error) {
	// Build SET clause dynamically
	setClauses := []string{}
	args := []interface{}{}

	if fields.Title != nil {
		setClauses = append(setClauses, "title = ?")
		args = append(args, *fields.Title)
	}
	if fields.Notes != nil {
		setClauses = append(setClauses, "notes = ?")
		args = append(args, *fields.Notes)
	}
	if fields.DueDate != nil {
		setClauses = append(setClauses, "due_date = ?")
		args = append(args, fields.DueDate.UTC().Format(time.RFC3339))
	}
	if fields.Priority != nil {
		setClauses = append(setClauses, "priority = ?")
		args = append(args, *fields.Priority)
	}
	if fields.Completed != nil {
		completed := 0
		if *fields.Completed {
			completed = 1
		}
		setClauses = append(setClauses, "completed = ?")
		args = append(args, completed)
	}
	if fields.ListName != nil {
		listID, err := s.resolveList(ctx, *fields.ListName)
		if err != nil {
			return nil, err
		}
		setClauses = append(setClauses, "list_id = ?")
		args = append(args, listID)
	}

	if len(setClauses) == 0 {
		return s.get(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(time.RFC3339))

	query := "UPDATE reminders SET "
	for i, clause := range setClauses {
		if i > 0 {
			query += ", "
		}
		query += clause
	}
	query += " WHERE id = ?"
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to update reminder: %v", reminder.ErrStore, err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return nil, fmt.Errorf("%w: no reminder with id %q", reminder.ErrReminderNotFound, id)
	}

	return s.get(ctx, id)
}

// Complete marks a reminder as completed. Completing an already-completed
// reminder is a no-op that succeeds.
func (s *Store) Complete(ctx context.Context, id string) (*reminder.Reminder, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := s.db.ExecContext(ctx, `
		UPDATE reminders SET completed = 1, updated_at = ? WHERE id = ?
	`, now, id)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to complete reminder: %v", reminder.ErrStore, err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return nil, fmt.Errorf("%w: no reminder with id %q", reminder.ErrReminderNotFound, id)
	}

	return s.get(ctx, id)
}

// Delete removes a reminder by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete reminder: %v", reminder.ErrStore, err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: no reminder with id %q", reminder.ErrReminderNotFound, id)
	}
	return nil
}

// get returns a single reminder by ID.
func (s *Store) get(ctx context.Context, id string) (*reminder.Reminder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.title, r.notes, r.due_date, r.priority, r.completed, l.name
		FROM reminders r JOIN lists l ON l.id = r.list_id
		WHERE r.id = ?
	`, id)

	r, err := scanReminder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: no reminder with id %q", reminder.ErrReminderNotFound, id)
		}
		return nil, fmt.Errorf("%w: failed to get reminder: %v", reminder.ErrStore, err)
	}
	return r, nil
}

// resolveList maps an exact list name to its row ID.
func (s *Store) resolveList(ctx context.Context, name string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM lists WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: no list named %q", reminder.ErrListNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to resolve list: %v", reminder.ErrStore, err)
	}
	return id, nil
}

// resolveListWithDefault resolves name, falling back to the default list
// when name is empty.
func (s *Store) resolveListWithDefault(ctx context.Context, name string) (string, string, error) {
	if name == "" {
		name = s.defaultList
	}
	id, err := s.resolveList(ctx, name)
	if err != nil {
		return "", "", err
	}
	return id, name, nil
}

// scanReminders reads multiple rows into a slice of Reminder.
func scanReminders(rows *sql.Rows) ([]reminder.Reminder, error) {
	var reminders []reminder.Reminder
	for rows.Next() {
		var r reminder.Reminder
		var dueDate sql.NullString
		var priority, completed int

		if err := rows.Scan(&r.ID, &r.Title, &r.Notes,
			&dueDate, &priority, &completed, &r.List); err != nil {
			return nil, fmt.Errorf("%w: failed to scan reminder: %v", reminder.ErrStore, err)
		}

		fillReminder(&r, dueDate, priority, completed)
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// scanReminder reads a single row into a Reminder.
func scanReminder(row *sql.Row) (*reminder.Reminder, error) {
	var r reminder.Reminder
	var dueDate sql.NullString
	var priority, completed int

	if err := row.Scan(&r.ID, &r.Title, &r.Notes,
		&dueDate, &priority, &completed, &r.List); err != nil {
		return nil, err
	}

	fillReminder(&r, dueDate, priority, completed)
	return &r, nil
}

func fillReminder(r *reminder.Reminder, dueDate sql.NullString, priority, completed int) {
	if dueDate.Valid && dueDate.String != "" {
		if t, err := time.Parse(time.RFC3339, dueDate.String); err == nil {
			local := t.In(time.Local)
			r.DueDate = &local
		}
	}
	r.Priority = reminder.FormatPriority(priority)
	r.Completed = completed != 0
}
