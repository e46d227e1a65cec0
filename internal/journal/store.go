// Package journal persists a local record of rename operations so a run can
// be audited after the fact. It is append-only; entries are never rewritten.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"resym/internal/rename"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Entry is one recorded rename attempt, successful or not.
type Entry struct {
	ID        int64
	Timestamp time.Time
	File      string
	OldName   string
	NewName   string
	Kind      rename.SymbolKind
	Engine    rename.EngineKind
	Changes   int
	Success   bool
	Error     string
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("journal path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("journal path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts when several renames run
	// against the same project.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite journal %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite journal %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Record appends one entry. A zero timestamp is filled with the current time.
func (s *Store) Record(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Kind == "" {
		entry.Kind = rename.KindAny
	}

	query := `
INSERT INTO renames (ts_utc, file, old_name, new_name, kind, engine, changes, success, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`
	return s.withRetry("record rename", func() error {
		_, err := s.db.Exec(
			query,
			entry.Timestamp.UTC().Format(time.RFC3339Nano),
			entry.File,
			entry.OldName,
			entry.NewName,
			string(entry.Kind),
			string(entry.Engine),
			entry.Changes,
			boolToInt(entry.Success),
			entry.Error,
		)
		return err
	})
}

// Recent returns the newest entries, most recent first. limit <= 0 means a
// default page of 50.
func (s *Store) Recent(limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}

	query := `
SELECT id, ts_utc, file, old_name, new_name, kind, engine, changes, success, error
FROM renames
ORDER BY id DESC
LIMIT ?
`
	var rows *sql.Rows
	err := s.withRetry("load renames", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			tsRaw   string
			kind    string
			engine  string
			success int
			entry   Entry
		)
		if err := rows.Scan(
			&entry.ID,
			&tsRaw,
			&entry.File,
			&entry.OldName,
			&entry.NewName,
			&kind,
			&engine,
			&entry.Changes,
			&success,
			&entry.Error,
		); err != nil {
			return nil, fmt.Errorf("scan rename row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse rename timestamp %q: %w", tsRaw, err)
		}
		entry.Timestamp = ts.UTC()
		entry.Kind = rename.SymbolKind(kind)
		entry.Engine = rename.EngineKind(engine)
		entry.Success = success != 0

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rename rows: %w", err)
	}

	return entries, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
