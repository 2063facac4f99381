package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"shuffler/internal/config"
)

// Outcome describes how a play attempt ended.
type Outcome string

const (
	OutcomePlaying     Outcome = "playing"
	OutcomeFinished    Outcome = "finished"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeSpawnFailed Outcome = "spawn_failed"
	OutcomeInterrupted Outcome = "interrupted"
)

// Entry is one play attempt.
type Entry struct {
	ID           int64
	SessionID    string
	Seed         uint64
	Cursor       uint64
	Track        string
	Outcome      Outcome
	ErrorMessage string
	StartedAt    time.Time
	EndedAt      time.Time
}

// Store manages play history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the history database named by the config.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.Paths.HistoryDB)
}

// OpenPath opens the history database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// Start inserts a play attempt with outcome "playing" and returns its id.
func (s *Store) Start(ctx context.Context, sessionID string, seed, cursor uint64, track string) (int64, error) {
	var id int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO plays (session_id, seed, cursor, track, outcome, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
			sessionID,
			strconv.FormatUint(seed, 10),
			int64(cursor),
			track,
			string(OutcomePlaying),
			s.timestamp(),
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert play: %w", err)
	}
	return id, nil
}

// Finish records the terminal outcome of a play attempt.
func (s *Store) Finish(ctx context.Context, id int64, outcome Outcome, message string) error {
	if id <= 0 {
		return fmt.Errorf("finish play: invalid id %d", id)
	}
	var errMsg sql.NullString
	if strings.TrimSpace(message) != "" {
		errMsg = sql.NullString{String: message, Valid: true}
	}
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`UPDATE plays SET outcome = ?, error_message = ?, ended_at = ? WHERE id = ?`,
			string(outcome), errMsg, s.timestamp(), id,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("finish play %d: %w", id, err)
	}
	return nil
}

// SweepUnfinished marks rows a previous run left "playing" as interrupted.
// Only the daemon calls it, before its first play.
func (s *Store) SweepUnfinished(ctx context.Context) (int64, error) {
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE plays SET outcome = ?, ended_at = ? WHERE outcome = ?`,
			string(OutcomeInterrupted), s.timestamp(), string(OutcomePlaying),
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("sweep unfinished plays: %w", err)
	}
	return affected, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, seed, cursor, track, outcome, error_message, started_at, ended_at
		 FROM plays ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query plays: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plays: %w", err)
	}
	return entries, nil
}

// Counts returns the number of plays per outcome.
func (s *Store) Counts(ctx context.Context) (map[Outcome]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(1) FROM plays GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("count plays: %w", err)
	}
	defer rows.Close()

	counts := make(map[Outcome]int)
	for rows.Next() {
		var (
			outcome string
			count   int
		)
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("scan play count: %w", err)
		}
		counts[Outcome(outcome)] = count
	}
	return counts, rows.Err()
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry      Entry
		seedRaw    string
		cursor     int64
		outcome    string
		errMsg     sql.NullString
		startedRaw string
		endedRaw   sql.NullString
	)
	if err := scanner.Scan(&entry.ID, &entry.SessionID, &seedRaw, &cursor, &entry.Track, &outcome, &errMsg, &startedRaw, &endedRaw); err != nil {
		return Entry{}, fmt.Errorf("scan play: %w", err)
	}
	seed, err := strconv.ParseUint(seedRaw, 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parse seed of play %d: %w", entry.ID, err)
	}
	entry.Seed = seed
	entry.Cursor = uint64(cursor)
	entry.Outcome = Outcome(outcome)
	entry.ErrorMessage = errMsg.String
	entry.StartedAt = parseTime(startedRaw)
	if endedRaw.Valid {
		entry.EndedAt = parseTime(endedRaw.String)
	}
	return entry, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}
