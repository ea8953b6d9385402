package session

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

const recordColumns = "id, session_id, username, role_applied, start_time, end_time, questions_total, questions_answered, timings_json, recording_file, audio_file, duration_seconds, completed, processed, created_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id          int64
		sessionID   string
		username    string
		roleApplied sql.NullString
		startRaw    sql.NullString
		endRaw      sql.NullString
		total       int
		answered    int
		timings     sql.NullString
		recording   sql.NullString
		audio       sql.NullString
		duration    sql.NullFloat64
		completed   sql.NullInt64
		processed   sql.NullInt64
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sessionID,
		&username,
		&roleApplied,
		&startRaw,
		&endRaw,
		&total,
		&answered,
		&timings,
		&recording,
		&audio,
		&duration,
		&completed,
		&processed,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	rec := &Record{
		ID:                id,
		SessionID:         sessionID,
		Username:          username,
		RoleApplied:       roleApplied.String,
		QuestionsTotal:    total,
		QuestionsAnswered: answered,
		TimingsJSON:       timings.String,
		RecordingFile:     recording.String,
		AudioFile:         audio.String,
		DurationSeconds:   duration.Float64,
		Completed:         completed.Valid && completed.Int64 != 0,
		Processed:         processed.Valid && processed.Int64 != 0,
	}

	if start, err := parseTimeString(startRaw.String); err == nil {
		rec.StartTime = start
	}
	if endRaw.Valid {
		if end, err := parseTimeString(endRaw.String); err == nil {
			rec.EndTime = &end
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		rec.UpdatedAt = updated
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

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

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
