// Package history keeps finished transcripts in a local SQLite database
// so the user can recover text after it left the clipboard.
package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"database/sql"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"murmur/log"
)

// Record is one finished transcript.
type Record struct {
	ID         string
	Text       string
	Model      string
	Backend    string
	DurationMS int64
	CreatedAt  time.Time
}

// Store wraps the SQLite-backed transcript log. maxEntries <= 0 disables
// pruning.
type Store struct {
	db         *sql.DB
	maxEntries int
	clock      func() time.Time
}

// Open creates or opens the database at path and applies retention.
func Open(ctx context.Context, path string, maxEntries int) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, maxEntries: maxEntries, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.Prune(ctx); err != nil {
		log.Warnf("history prune on start failed: %v", err)
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS transcripts (
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    model TEXT,
    backend TEXT,
    duration_ms INTEGER,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcripts_created ON transcripts(created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores one record, assigning ID and CreatedAt when unset, then
// applies retention.
func (s *Store) Append(ctx context.Context, r Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcripts(id, text, model, backend, duration_ms, created_at)
		 VALUES(?, ?, ?, ?, ?, ?)`,
		r.ID, r.Text, r.Model, r.Backend, r.DurationMS, r.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	return s.Prune(ctx)
}

// Recent returns up to n records, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Record, error) {
	if n <= 0 {
		n = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, model, backend, duration_ms, created_at
		 FROM transcripts ORDER BY created_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var created string
		if err := rows.Scan(&r.ID, &r.Text, &r.Model, &r.Backend, &r.DurationMS, &created); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.CreatedAt = ts
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Prune deletes the oldest rows beyond the retention limit.
func (s *Store) Prune(ctx context.Context) error {
	if s.maxEntries <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM transcripts WHERE id NOT IN (
		    SELECT id FROM transcripts ORDER BY created_at DESC, id DESC LIMIT ?
		 )`, s.maxEntries)
	return err
}
