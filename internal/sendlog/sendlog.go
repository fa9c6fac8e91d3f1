// Package sendlog journals every send attempt in the local database so the
// text of a failed send can be recalled later.
package sendlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/guilhermegouw/unwind/internal/db"
)

// ErrNotFound is returned when no matching entry exists.
var ErrNotFound = errors.New("send log entry not found")

// Status is the outcome of a send attempt.
type Status string

// Status constants.
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Entry is one send attempt.
type Entry struct {
	LocalID   string
	SessionID string
	Text      string
	Status    Status
	ReplyID   string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store reads and writes the send_log table.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// New creates a store over an open database.
func New(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Begin records a pending attempt.
func (s *Store) Begin(ctx context.Context, localID, sessionID, text string) error {
	now := s.now().UnixMilli()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO send_log (local_id, session_id, text, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		localID, sessionID, text, StatusPending, now, now)
	if err != nil {
		return fmt.Errorf("recording send: %w", err)
	}
	return nil
}

// Confirm marks an attempt as delivered.
func (s *Store) Confirm(ctx context.Context, localID, replyID string) error {
	return s.finish(ctx, localID, StatusConfirmed, replyID, "")
}

// Fail marks an attempt as failed and keeps the error text.
func (s *Store) Fail(ctx context.Context, localID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.finish(ctx, localID, StatusFailed, "", msg)
}

func (s *Store) finish(ctx context.Context, localID string, status Status, replyID, errText string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE send_log SET status = ?, reply_id = ?, error = ?, updated_at = ? WHERE local_id = ?`,
		status, replyID, errText, s.now().UnixMilli(), localID)
	if err != nil {
		return fmt.Errorf("updating send %s: %w", localID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating send %s: %w", localID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FailPending marks attempts left pending by an earlier process as failed.
// It returns how many were updated.
func (s *Store) FailPending(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE send_log SET status = ?, error = ?, updated_at = ? WHERE status = ?`,
		StatusFailed, "interrupted", s.now().UnixMilli(), StatusPending)
	if err != nil {
		return 0, fmt.Errorf("failing pending sends: %w", err)
	}
	return res.RowsAffected()
}

// LastFailed returns the most recent failed attempt in a session.
func (s *Store) LastFailed(ctx context.Context, sessionID string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT local_id, session_id, text, status, reply_id, error, created_at, updated_at
		 FROM send_log WHERE session_id = ? AND status = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		sessionID, StatusFailed)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("reading last failed send: %w", err)
	}
	return e, nil
}

// Recent returns up to limit attempts, newest first. A status filter of ""
// returns every status.
func (s *Store) Recent(ctx context.Context, status Status, limit int) ([]Entry, error) {
	query := `SELECT local_id, session_id, text, status, reply_id, error, created_at, updated_at FROM send_log`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sends: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor.

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning send: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Recall takes the most recent failed attempt in a session out of the log and
// returns it. The read and the delete share one transaction, so concurrent
// recalls never hand out the same draft.
func (s *Store) Recall(ctx context.Context, sessionID string) (Entry, error) {
	var e Entry
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT local_id, session_id, text, status, reply_id, error, created_at, updated_at
			 FROM send_log WHERE session_id = ? AND status = ?
			 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
			sessionID, StatusFailed)
		var err error
		e, err = scanEntry(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("reading last failed send: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM send_log WHERE local_id = ? AND status = ?`, e.LocalID, StatusFailed)
		if err != nil {
			return fmt.Errorf("deleting send %s: %w", e.LocalID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("deleting send %s: %w", e.LocalID, err)
		}
		// Taken by another recall between the read and the delete.
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var e Entry
	var status string
	var created, updated int64
	if err := sc.Scan(&e.LocalID, &e.SessionID, &e.Text, &status, &e.ReplyID, &e.Error, &created, &updated); err != nil {
		return Entry{}, err
	}
	e.Status = Status(status)
	e.CreatedAt = time.UnixMilli(created)
	e.UpdatedAt = time.UnixMilli(updated)
	return e, nil
}
