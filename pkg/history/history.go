// Package history keeps a local SQLite journal of clipboard publishes so a
// user can see which formats a paste target was actually offered.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const selectEntriesWhere = `SELECT
		id,
		operation,
		published,
		omitted,
		image_bytes,
		text_bytes,
		binary_bytes,
		error,
		created_at
	FROM entries WHERE 1=1
	`

// Operation names stored with each entry.
const (
	OperationImage = "copy-image"
	OperationCDX   = "copy-cdx"
	OperationMulti = "copy"
	OperationHost  = "native-host"
)

type Manager struct {
	db *sql.DB
}

// Entry is one clipboard publish. Published and Omitted hold clipboard
// format names; Error is empty for a successful publish.
type Entry struct {
	ID          string
	Operation   string
	Published   []string
	Omitted     []string
	ImageBytes  int
	TextBytes   int
	BinaryBytes int
	Error       string
	CreatedAt   time.Time
}

// Failed reports whether the publish as a whole failed.
func (e Entry) Failed() bool { return e.Error != "" }

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Operation  string
	FailedOnly bool
	Since      time.Time
	Limit      int
}

func NewManager(dbPath string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	m := &Manager{db: db}
	if err := m.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return m, nil
}

func (m *Manager) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			operation TEXT NOT NULL,
			published TEXT NOT NULL,
			omitted TEXT NOT NULL,
			image_bytes INTEGER NOT NULL DEFAULT 0,
			text_bytes INTEGER NOT NULL DEFAULT 0,
			binary_bytes INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_operation ON entries(operation)`,
	}

	for _, query := range queries {
		if _, err := m.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// Record stores e, assigning an ID and timestamp when they are unset, and
// returns the stored entry.
func (m *Manager) Record(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO entries
		(id, operation, published, omitted, image_bytes, text_bytes, binary_bytes, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := m.db.Exec(query,
		e.ID,
		e.Operation,
		joinFormats(e.Published),
		joinFormats(e.Omitted),
		e.ImageBytes,
		e.TextBytes,
		e.BinaryBytes,
		e.Error,
		e.CreatedAt)
	if err != nil {
		return e, fmt.Errorf("failed to record history entry: %w", err)
	}

	return e, nil
}

// List returns entries matching f, newest first.
func (m *Manager) List(f Filter) ([]Entry, error) {
	query := selectEntriesWhere
	args := []any{}

	if f.Operation != "" {
		query += " AND operation = ?"
		args = append(args, f.Operation)
	}

	if f.FailedOnly {
		query += " AND error != ''"
	}

	if !f.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, f.Since.UTC())
	}

	query += " ORDER BY created_at DESC"

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := e.scan(rows); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Get returns the entry with the given id, or nil when there is none.
func (m *Manager) Get(id string) (*Entry, error) {
	row := m.db.QueryRow(selectEntriesWhere+" AND id = ?", id)

	var e Entry
	if err := e.scan(row); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return &e, nil
}

// Prune deletes entries created before cutoff and returns how many went.
func (m *Manager) Prune(cutoff time.Time) (int64, error) {
	res, err := m.db.Exec(`DELETE FROM entries WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

func (m *Manager) GetInfo() (map[string]any, error) {
	var count, failed int
	var oldest sql.NullTime

	if err := m.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to query entry count: %w", err)
	}
	if err := m.db.QueryRow("SELECT COUNT(*) FROM entries WHERE error != ''").Scan(&failed); err != nil {
		return nil, fmt.Errorf("failed to query failed count: %w", err)
	}
	if count > 0 {
		var raw string
		if err := m.db.QueryRow("SELECT MIN(created_at) FROM entries").Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to query oldest entry: %w", err)
		}
		if t, err := parseTime(raw); err == nil {
			oldest = sql.NullTime{Time: t, Valid: true}
		}
	}

	return map[string]any{
		"entries_count": count,
		"failed_count":  failed,
		"oldest_entry":  oldest.Time,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (e *Entry) scan(s scanner) error {
	var published, omitted string
	if err := s.Scan(&e.ID,
		&e.Operation,
		&published,
		&omitted,
		&e.ImageBytes,
		&e.TextBytes,
		&e.BinaryBytes,
		&e.Error,
		&e.CreatedAt); err != nil {
		return err
	}
	e.Published = splitFormats(published)
	e.Omitted = splitFormats(omitted)
	return nil
}

// Format names may contain spaces and commas, so they are stored one per
// line.
func joinFormats(names []string) string {
	return strings.Join(names, "\n")
}

func splitFormats(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// MIN() loses the column type, so the driver hands back text.
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		time.RFC3339Nano,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
