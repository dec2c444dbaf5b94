// Package history keeps a log of completed build passes in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/postforge/internal/build"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
)

// Entry is one recorded pass.
type Entry struct {
	PassID     string    `json:"pass_id"`
	Mode       string    `json:"mode"`
	Status     string    `json:"status"`
	Full       bool      `json:"full"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Built      int       `json:"built"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Deleted    int       `json:"deleted"`
	Generation uint64    `json:"generation"`
	Revision   string    `json:"revision,omitempty"`
	Failures   []string  `json:"failures,omitempty"`
}

// FromResult converts a pass result into a history entry.
func FromResult(res *build.Result, revision string) Entry {
	e := Entry{
		PassID:     res.PassID,
		Mode:       string(res.Mode),
		Status:     string(res.Status),
		Full:       res.Full,
		StartedAt:  res.StartedAt.UTC(),
		DurationMS: res.Duration.Milliseconds(),
		Built:      res.Built(),
		Skipped:    res.Skipped(),
		Failed:     res.Failed(),
		Deleted:    res.Deleted(),
		Generation: res.Generation,
		Revision:   revision,
	}
	for _, f := range res.Failures {
		e.Failures = append(e.Failures, fmt.Sprintf("%s %s: %v", f.Kind, f.Item, f.Err))
	}
	return e
}

var columns = []string{
	"pass_id", "mode", "status", "full", "started_at", "duration_ms",
	"built", "skipped", "failed", "deleted", "generation", "revision", "failures",
}

// Store persists entries. It is safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the database at path. Use ":memory:" for an
// in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, errors.HistoryError("cannot create history directory").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.HistoryError("open sqlite database").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	// an in-memory database lives only as long as its connection
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.HistoryError("initialize schema").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS passes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pass_id TEXT NOT NULL UNIQUE,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		full INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		built INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		deleted INTEGER NOT NULL,
		generation INTEGER NOT NULL,
		revision TEXT,
		failures TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_started_at ON passes(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records one pass.
func (s *Store) Append(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var failures []byte
	if len(e.Failures) > 0 {
		var err error
		if failures, err = json.Marshal(e.Failures); err != nil {
			return fmt.Errorf("marshal failures: %w", err)
		}
	}
	query, args, err := sq.Insert("passes").
		Columns(columns...).
		Values(e.PassID, e.Mode, e.Status, e.Full, e.StartedAt.UnixNano(), e.DurationMS,
			e.Built, e.Skipped, e.Failed, e.Deleted, int64(e.Generation), e.Revision, string(failures)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.HistoryError("insert pass").
			WithCause(err).
			WithContext("pass_id", e.PassID).
			Build()
	}
	return nil
}

// Recent returns at most limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	query, args, err := sq.Select(columns...).
		From("passes").
		OrderBy("started_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.HistoryError("query passes").WithCause(err).Build()
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			startedAt  int64
			generation int64
			revision   sql.NullString
			failures   sql.NullString
		)
		if err := rows.Scan(&e.PassID, &e.Mode, &e.Status, &e.Full, &startedAt, &e.DurationMS,
			&e.Built, &e.Skipped, &e.Failed, &e.Deleted, &generation, &revision, &failures); err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		e.StartedAt = time.Unix(0, startedAt).UTC()
		e.Generation = uint64(generation)
		e.Revision = revision.String
		if failures.String != "" {
			if err := json.Unmarshal([]byte(failures.String), &e.Failures); err != nil {
				return nil, fmt.Errorf("unmarshal failures: %w", err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
