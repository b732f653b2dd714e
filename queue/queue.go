// Package queue implements the durable, deduplicating SMS submission
// queue: a single SQLite file accessed through database/sql, with the
// claim step serialized by SQLite's own single-writer model rather than
// an in-process lock.
package queue

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/onprem-sms/engine/smserr"
)

// Status is the numeric, on-disk encoding of a record's lifecycle
// state. The values are part of the persisted schema contract.
type Status int

const (
	Queued Status = iota
	Processing
	Sent
	Failed
)

// Outcome is the result of a Submit call.
type Outcome string

const (
	OutcomeQueued           Outcome = "QUEUED"
	OutcomeDuplicateIgnored Outcome = "DUPLICATE_IGNORED"
)

// retryCap bounds how many times a FAILED record may be retried before
// it is no longer eligible for reclaiming. retryCooldown is the minimum
// time a FAILED record must sit untouched before it becomes eligible
// again. Both are fixed per spec; see DESIGN.md for the rationale.
const (
	retryCap      = 10
	retryCooldown = "-5 minutes"
)

// Record is a claimed row: the fields ClaimNext needs to hand to the
// dispatch layer.
type Record struct {
	ID          int64
	PhoneNumber string
	Message     string
	Retries     int
}

// Store wraps the SQLite-backed queue.
type Store struct {
	db *sql.DB
}

// Open resolves location (a sqlite:// URI, a sqlite: URI, or a bare
// filesystem path; any trailing "?query" is stripped), creates parent
// directories if absent, opens a WAL-journaled connection, and applies
// the schema (idempotent create plus additive column upgrades).
func Open(ctx context.Context, location string) (*Store, error) {
	path := resolvePath(location)
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create directory %s: %v", smserr.ErrStoreIO, dir, err)
		}
	}

	// _txlock=immediate makes every BeginTx acquire SQLite's RESERVED
	// lock up front, so ClaimNext's read-then-update is atomic across
	// concurrent callers without any in-process mutex.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", smserr.ErrStoreIO, path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", smserr.ErrStoreIO, path, err)
	}

	store := &Store{db: db}
	if err := store.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func resolvePath(location string) string {
	path := location
	switch {
	case strings.HasPrefix(location, "sqlite://"):
		path = location[len("sqlite://"):]
	case strings.HasPrefix(location, "sqlite:"):
		path = location[len("sqlite:"):]
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS sms_queue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		phone_number TEXT NOT NULL,
		message TEXT NOT NULL,
		status INTEGER NOT NULL DEFAULT 0,
		retries INTEGER NOT NULL DEFAULT 0,
		last_attempt_at DATETIME,
		last_error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("%w: create schema: %v", smserr.ErrStoreRuntime, err)
	}

	// Additive upgrades for installations created before these columns
	// existed. SQLite has no "ADD COLUMN IF NOT EXISTS"; a failure here
	// means the column is already present and is ignored.
	_, _ = s.db.ExecContext(ctx, `ALTER TABLE sms_queue ADD COLUMN last_attempt_at DATETIME`)
	_, _ = s.db.ExecContext(ctx, `ALTER TABLE sms_queue ADD COLUMN last_error TEXT`)
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Submit inserts (phone, message) as a new QUEUED record unless a row
// for the same pair already exists with status QUEUED, PROCESSING, or
// FAILED. The check-and-insert is one statement, not a read followed
// by a write, so it stays correct under concurrent submitters.
func (s *Store) Submit(ctx context.Context, phone, message string) (Outcome, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sms_queue (phone_number, message, status, retries)
		SELECT ?, ?, 0, 0
		WHERE NOT EXISTS (
			SELECT 1 FROM sms_queue
			WHERE phone_number = ? AND message = ? AND status IN (0, 1, 3)
		)`, phone, message, phone, message)
	if err != nil {
		return "", fmt.Errorf("%w: insert submission: %v", smserr.ErrStoreRuntime, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("%w: rows affected: %v", smserr.ErrStoreRuntime, err)
	}
	if affected == 0 {
		return OutcomeDuplicateIgnored, nil
	}
	return OutcomeQueued, nil
}

// ClaimNext atomically selects at most one eligible record and
// transitions it to PROCESSING. With retryLimit <= 0 only fresh QUEUED
// rows are considered; with retryLimit > 0 up to retryLimit cooled-down
// FAILED rows (retries < 10, most recent id first) are unioned in. The
// oldest eligible row (by created_at) wins. Returns (nil, nil) when
// nothing qualifies.
func (s *Store) ClaimNext(ctx context.Context, retryLimit int) (*Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin claim: %v", smserr.ErrStoreRuntime, err)
	}
	defer tx.Rollback()

	var id int64
	var selectErr error
	if retryLimit > 0 {
		selectErr = tx.QueryRowContext(ctx, `
			SELECT id FROM sms_queue
			WHERE status = 0
			   OR (
			       id IN (
			           SELECT id FROM sms_queue
			           WHERE status = 3 AND retries < ?
			           ORDER BY id DESC LIMIT ?
			       )
			       AND (last_attempt_at IS NULL OR last_attempt_at < datetime('now', ?))
			   )
			ORDER BY created_at LIMIT 1`,
			retryCap, retryLimit, retryCooldown).Scan(&id)
	} else {
		selectErr = tx.QueryRowContext(ctx, `
			SELECT id FROM sms_queue WHERE status = 0 ORDER BY created_at LIMIT 1`).Scan(&id)
	}

	if selectErr != nil {
		if selectErr == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: select candidate: %v", smserr.ErrStoreRuntime, selectErr)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sms_queue SET status = 1, last_attempt_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	); err != nil {
		return nil, fmt.Errorf("%w: claim %d: %v", smserr.ErrStoreRuntime, id, err)
	}

	rec := &Record{}
	row := tx.QueryRowContext(ctx,
		`SELECT id, phone_number, message, retries FROM sms_queue WHERE id = ?`, id)
	if err := row.Scan(&rec.ID, &rec.PhoneNumber, &rec.Message, &rec.Retries); err != nil {
		return nil, fmt.Errorf("%w: read claimed row %d: %v", smserr.ErrStoreRuntime, id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit claim: %v", smserr.ErrStoreRuntime, err)
	}
	return rec, nil
}

// MarkSent transitions id to SENT and clears any previously recorded
// error.
func (s *Store) MarkSent(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE sms_queue SET status = 2, last_error = NULL WHERE id = ?`, id,
	); err != nil {
		return fmt.Errorf("%w: mark sent %d: %v", smserr.ErrStoreRuntime, id, err)
	}
	return nil
}

// MarkFailed transitions id to FAILED, increments retries, and records
// reason.
func (s *Store) MarkFailed(ctx context.Context, id int64, reason string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE sms_queue SET status = 3, retries = retries + 1, last_error = ? WHERE id = ?`,
		reason, id,
	); err != nil {
		return fmt.Errorf("%w: mark failed %d: %v", smserr.ErrStoreRuntime, id, err)
	}
	return nil
}

// ResetStuck transitions every PROCESSING row to FAILED, clearing
// last_attempt_at and recording a fixed reason. Called once at engine
// bootstrap to recover from a crash mid-attempt.
func (s *Store) ResetStuck(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE sms_queue
		SET status = 3, last_attempt_at = NULL, last_error = 'Interrupted by system restart'
		WHERE status = 1`,
	); err != nil {
		return fmt.Errorf("%w: reset stuck rows: %v", smserr.ErrStoreRuntime, err)
	}
	return nil
}

// QueryRowForTest exposes the underlying connection for assertions from
// other packages' tests; it is not part of the store's operational API.
func (s *Store) QueryRowForTest(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

// seedForTest is a package-private helper used by tests to insert rows
// with explicit status/timestamps that Submit/ClaimNext cannot produce
// directly (e.g. backdated created_at, pre-existing FAILED rows).
func (s *Store) seedForTest(ctx context.Context, phone, message string, status Status, retries int, createdAt time.Time, lastAttempt *time.Time) (int64, error) {
	var res sql.Result
	var err error
	if lastAttempt != nil {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO sms_queue (phone_number, message, status, retries, created_at, last_attempt_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			phone, message, status, retries, createdAt, *lastAttempt)
	} else {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO sms_queue (phone_number, message, status, retries, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			phone, message, status, retries, createdAt)
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
