// Package cursor persists local check state: when the page was last
// checked and which notice PDFs have already been seen. It is a small
// SQLite file next to the process, separate from the record store.
package cursor

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/youngcitybandit/nj-health-monitor/internal/common"
)

// Schema for the cursor tables. Applied on Open.
const Schema = `
CREATE TABLE IF NOT EXISTS check_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	last_check TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS seen_pdfs (
	pdf_url TEXT PRIMARY KEY,
	first_seen TEXT NOT NULL
);
`

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.NewAppError("CURSOR_OPEN", "opening cursor database", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, common.NewAppError("CURSOR_OPEN", "applying cursor schema", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LastCheck returns the time of the last recorded check, or the zero time
// when no check has been recorded yet.
func (s *Store) LastCheck(ctx context.Context) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT last_check FROM check_state WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, common.NewAppError("CURSOR_READ", "reading last check", err)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, common.NewAppError("CURSOR_READ", "stored last check is malformed", err)
	}
	return t, nil
}

// SetLastCheck records the time of the current check.
func (s *Store) SetLastCheck(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO check_state (id, last_check) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET last_check = excluded.last_check`,
		t.UTC().Format(time.RFC3339))
	if err != nil {
		return common.NewAppError("CURSOR_WRITE", "saving last check", err)
	}
	return nil
}

// MarkSeen records a PDF URL as processed. Marking the same URL again is
// a no-op.
func (s *Store) MarkSeen(ctx context.Context, pdfURL string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO seen_pdfs (pdf_url, first_seen) VALUES (?, ?)`,
		pdfURL, at.UTC().Format(time.RFC3339))
	if err != nil {
		return common.NewAppError("CURSOR_WRITE", "marking PDF seen", err)
	}
	return nil
}

// Seen reports whether a PDF URL has already been processed.
func (s *Store) Seen(ctx context.Context, pdfURL string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM seen_pdfs WHERE pdf_url = ?`, pdfURL).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, common.NewAppError("CURSOR_READ", "checking seen PDFs", err)
	}
	return true, nil
}
