// Package archive persists canonical events to a local SQLite database so
// they can be queried and tailed after the fact with `mkstream logs`.
// Archiving is best-effort: storage failures are logged to stderr and never
// surface on the stream path.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"mkstream/pkg/event"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id    TEXT NOT NULL,
	ts    TEXT NOT NULL,
	event TEXT NOT NULL,
	data  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_event ON events(event);
`

// Store is the SQLite-backed event archive.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Open opens (creating if needed) the archive at path with WAL journaling
// and a busy timeout, and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema on %s: %w", path, err)
	}

	return &Store{
		db:     db,
		logger: log.New(os.Stderr, "[archive] ", 0),
	}, nil
}

// OpenReadOnly opens an existing archive without creating it, for queries.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("archive not found: %w", err)
	}
	return Open(path)
}

// Close releases the database connection. Safe to call multiple times.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Record inserts one canonical event. Implements event.Recorder: failures
// are logged, not returned.
func (s *Store) Record(ts string, kind event.Kind, data map[string]any) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Printf("marshal %s event: %v", kind, err)
		return
	}
	_, err = s.db.ExecContext(context.Background(),
		`INSERT INTO events (id, ts, event, data) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), ts, string(kind), string(payload))
	if err != nil {
		s.logger.Printf("insert %s event: %v", kind, err)
	}
}

// Row is one archived event.
type Row struct {
	Seq  int64 // SQLite rowid, monotonically increasing insert order
	ID   string
	TS   string
	Kind string
	Data string // JSON as stored
}

// QueryOpts filters archive queries.
type QueryOpts struct {
	Kind     string // filter to one event kind; empty = all
	AfterSeq int64  // only rows with Seq > AfterSeq
	Limit    int    // 0 = no limit
}

// Query returns archived events in insertion order.
func (s *Store) Query(ctx context.Context, opts QueryOpts) ([]Row, error) {
	q := `SELECT rowid, id, ts, event, data FROM events WHERE rowid > ?`
	args := []any{opts.AfterSeq}
	if opts.Kind != "" {
		q += ` AND event = ?`
		args = append(args, opts.Kind)
	}
	q += ` ORDER BY rowid`
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Seq, &r.ID, &r.TS, &r.Kind, &r.Data); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return out, nil
}

// Tail returns the most recent n events in insertion order.
func (s *Store) Tail(ctx context.Context, kind string, n int) ([]Row, error) {
	q := `SELECT rowid, id, ts, event, data FROM events`
	var args []any
	if kind != "" {
		q += ` WHERE event = ?`
		args = append(args, kind)
	}
	q += ` ORDER BY rowid DESC LIMIT ?`
	args = append(args, n)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Seq, &r.ID, &r.TS, &r.Kind, &r.Data); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// SetLogger overrides the diagnostic logger (for tests).
func (s *Store) SetLogger(l *log.Logger) {
	s.logger = l
}
