// Package sqldoc keeps the statistics document as a single row in a SQL
// table. The row carries an integer revision that every update bumps, which
// gives compare-and-swap saves on any database/sql driver.
package sqldoc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aevon-lab/tokenledger/internal/core/storage"
)

// DocumentID is the primary key of the single statistics row.
const DocumentID = "stats"

// Queries holds the dialect-specific statements. Each takes its arguments in
// the order documented on the field.
type Queries struct {
	// Load: (id) -> (revision, body)
	Load string
	// Insert: (id, body, updated_at) -> revision; no row when id exists
	Insert string
	// Update: (body, updated_at, id, expected revision); zero rows on mismatch
	Update string
}

// Store implements storage.DocumentStore on a *sql.DB.
type Store struct {
	db      *sql.DB
	queries Queries
	nowFn   func() time.Time
}

// New wraps an open database. The schema must already exist.
func New(db *sql.DB, queries Queries) *Store {
	return &Store{db: db, queries: queries, nowFn: time.Now}
}

// DB exposes the underlying pool for callers that own its lifecycle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the stored body and revision, or nothing if the row is absent.
func (s *Store) Load(ctx context.Context) ([]byte, storage.Revision, error) {
	var (
		rev  int64
		body []byte
	)
	err := s.db.QueryRowContext(ctx, s.queries.Load, DocumentID).Scan(&rev, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load statistics document: %w", err)
	}
	return body, formatRevision(rev), nil
}

// Save inserts the row when expected is empty, otherwise updates it only if
// the stored revision still matches. The body is bound as text.
func (s *Store) Save(ctx context.Context, data []byte, expected storage.Revision) (storage.Revision, error) {
	now := s.nowFn().UTC()

	if expected == "" {
		var rev int64
		err := s.db.QueryRowContext(ctx, s.queries.Insert, DocumentID, string(data), now).Scan(&rev)
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrConflict
		}
		if err != nil {
			return "", fmt.Errorf("failed to insert statistics document: %w", err)
		}
		return formatRevision(rev), nil
	}

	want, err := strconv.ParseInt(string(expected), 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: malformed revision %q", storage.ErrConflict, expected)
	}

	res, err := s.db.ExecContext(ctx, s.queries.Update, string(data), now, DocumentID, want)
	if err != nil {
		return "", fmt.Errorf("failed to update statistics document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return "", storage.ErrConflict
	}
	return formatRevision(want + 1), nil
}

func formatRevision(rev int64) storage.Revision {
	return storage.Revision(strconv.FormatInt(rev, 10))
}
