package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"proctor/internal/config"
	"proctor/internal/services"
)

// Store manages session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the session database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Create inserts a new session record. A missing SessionID is generated;
// StartTime defaults to now.
func (s *Store) Create(ctx context.Context, rec *Record) (*Record, error) {
	if rec == nil {
		return nil, errors.New("session: nil record")
	}
	if strings.TrimSpace(rec.Username) == "" {
		return nil, errors.New("session: username required")
	}
	if rec.SessionID == "" {
		rec.SessionID = uuid.NewString()
	}
	if rec.StartTime.IsZero() {
		rec.StartTime = time.Now().UTC()
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(ctx,
		`INSERT INTO sessions (
            session_id, username, role_applied, start_time, end_time,
            questions_total, questions_answered, timings_json,
            recording_file, audio_file, duration_seconds,
            completed, processed, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID,
		rec.Username,
		nullableString(rec.RoleApplied),
		rec.StartTime.UTC().Format(time.RFC3339Nano),
		nullableTime(rec.EndTime),
		rec.QuestionsTotal,
		rec.QuestionsAnswered,
		nullableString(rec.TimingsJSON),
		nullableString(rec.RecordingFile),
		nullableString(rec.AudioFile),
		rec.DurationSeconds,
		boolToInt(rec.Completed),
		boolToInt(rec.Processed),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	if _, err := res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetBySessionID(ctx, rec.SessionID)
}

// GetBySessionID fetches one record, or services.ErrNotFound.
func (s *Store) GetBySessionID(ctx context.Context, sessionID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM sessions WHERE session_id = ?", sessionID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "session", "get", sessionID, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return rec, nil
}

// Update persists every mutable field of the record.
func (s *Store) Update(ctx context.Context, rec *Record) error {
	if rec == nil || rec.SessionID == "" {
		return errors.New("session: record without session id")
	}
	err := s.execWithoutResultRetry(ctx,
		`UPDATE sessions SET
            role_applied = ?, start_time = ?, end_time = ?,
            questions_total = ?, questions_answered = ?, timings_json = ?,
            recording_file = ?, audio_file = ?, duration_seconds = ?,
            completed = ?, processed = ?, updated_at = ?
        WHERE session_id = ?`,
		nullableString(rec.RoleApplied),
		rec.StartTime.UTC().Format(time.RFC3339Nano),
		nullableTime(rec.EndTime),
		rec.QuestionsTotal,
		rec.QuestionsAnswered,
		nullableString(rec.TimingsJSON),
		nullableString(rec.RecordingFile),
		nullableString(rec.AudioFile),
		rec.DurationSeconds,
		boolToInt(rec.Completed),
		boolToInt(rec.Processed),
		time.Now().UTC().Format(time.RFC3339Nano),
		rec.SessionID,
	)
	if err != nil {
		return fmt.Errorf("update session %s: %w", rec.SessionID, err)
	}
	return nil
}

// UpdateTimings replaces the per-question timing list and answered count.
func (s *Store) UpdateTimings(ctx context.Context, sessionID string, timings []QuestionTiming) error {
	rec := &Record{}
	if err := rec.SetTimings(timings); err != nil {
		return err
	}
	answered := 0
	for _, timing := range timings {
		if timing.Answered {
			answered++
		}
	}
	err := s.execWithoutResultRetry(ctx,
		"UPDATE sessions SET timings_json = ?, questions_answered = ?, updated_at = ? WHERE session_id = ?",
		nullableString(rec.TimingsJSON),
		answered,
		time.Now().UTC().Format(time.RFC3339Nano),
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("update timings %s: %w", sessionID, err)
	}
	return nil
}

// MarkCompleted stamps the end time, duration, and completed flag.
func (s *Store) MarkCompleted(ctx context.Context, sessionID string, endTime time.Time) error {
	rec, err := s.GetBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	duration := endTime.Sub(rec.StartTime).Seconds()
	if duration < 0 {
		duration = 0
	}
	err = s.execWithoutResultRetry(ctx,
		"UPDATE sessions SET end_time = ?, duration_seconds = ?, completed = 1, updated_at = ? WHERE session_id = ?",
		endTime.UTC().Format(time.RFC3339Nano),
		duration,
		time.Now().UTC().Format(time.RFC3339Nano),
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("mark completed %s: %w", sessionID, err)
	}
	return nil
}

// MarkProcessed flags the session as picked up by the analysis pipeline.
func (s *Store) MarkProcessed(ctx context.Context, sessionID string) error {
	err := s.execWithoutResultRetry(ctx,
		"UPDATE sessions SET processed = 1, updated_at = ? WHERE session_id = ?",
		time.Now().UTC().Format(time.RFC3339Nano),
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("mark processed %s: %w", sessionID, err)
	}
	return nil
}

// NextUnprocessed returns the oldest completed session not yet processed, or
// nil when the backlog is empty.
func (s *Store) NextUnprocessed(ctx context.Context) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM sessions WHERE completed = 1 AND processed = 0 ORDER BY updated_at ASC LIMIT 1")
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next unprocessed: %w", err)
	}
	return rec, nil
}

// ListByUser returns the user's sessions, newest first.
func (s *Store) ListByUser(ctx context.Context, username string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM sessions WHERE username = ? ORDER BY start_time DESC", username)
	if err != nil {
		return nil, fmt.Errorf("list sessions for %s: %w", username, err)
	}
	defer func() { _ = rows.Close() }()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return records, nil
}

// LatestForUser returns the user's most recent session, or nil when the user
// has none.
func (s *Store) LatestForUser(ctx context.Context, username string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM sessions WHERE username = ? ORDER BY start_time DESC LIMIT 1", username)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest session for %s: %w", username, err)
	}
	return rec, nil
}

// Stats summarizes the store for operator status output.
type Stats struct {
	Total     int
	Completed int
	Processed int
	Pending   int
}

// Stats counts sessions by lifecycle state. Pending means completed but not
// yet processed.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx, `SELECT
            COUNT(1),
            COALESCE(SUM(completed), 0),
            COALESCE(SUM(processed), 0),
            COALESCE(SUM(CASE WHEN completed = 1 AND processed = 0 THEN 1 ELSE 0 END), 0)
        FROM sessions`).Scan(&stats.Total, &stats.Completed, &stats.Processed, &stats.Pending)
	if err != nil {
		return Stats{}, fmt.Errorf("session stats: %w", err)
	}
	return stats, nil
}
