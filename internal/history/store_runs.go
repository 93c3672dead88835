package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"ticketsmith/internal/services"
)

const selectColumns = `id, run_id, status, source_kind, source_ref, issue_key, issue_url, issue_type,
    summary, subtask_keys, parent_key, excerpt, error_message, created_at, duration_ms`

// Record stores a finished run. Entries are keyed by run id; recording the
// same run twice replaces the earlier row.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(entry.RunID) == "" {
		return services.Wrap(services.ErrValidation, "record", "insert run", "run id required", nil)
	}
	if entry.Status == "" {
		entry.Status = StatusCreated
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO runs (
                run_id, status, source_kind, source_ref, issue_key, issue_url, issue_type,
                summary, subtask_keys, parent_key, excerpt, error_message, created_at, duration_ms
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(run_id) DO UPDATE SET
                status = excluded.status,
                source_kind = excluded.source_kind,
                source_ref = excluded.source_ref,
                issue_key = excluded.issue_key,
                issue_url = excluded.issue_url,
                issue_type = excluded.issue_type,
                summary = excluded.summary,
                subtask_keys = excluded.subtask_keys,
                parent_key = excluded.parent_key,
                excerpt = excluded.excerpt,
                error_message = excluded.error_message,
                created_at = excluded.created_at,
                duration_ms = excluded.duration_ms`,
			entry.RunID,
			string(entry.Status),
			entry.SourceKind,
			nullableString(entry.SourceRef),
			nullableString(entry.IssueKey),
			nullableString(entry.IssueURL),
			nullableString(entry.IssueType),
			nullableString(entry.Summary),
			nullableString(strings.Join(entry.Subtasks, ",")),
			nullableString(entry.ParentKey),
			nullableString(clipExcerpt(entry.Excerpt)),
			nullableString(entry.Error),
			entry.CreatedAt.UTC().Format(time.RFC3339Nano),
			entry.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		return nil
	})
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var entries []Entry
	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+selectColumns+` FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
		if err != nil {
			return fmt.Errorf("query runs: %w", err)
		}
		defer rows.Close()

		entries = entries[:0]
		for rows.Next() {
			entry, err := scanEntry(rows)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByKey returns the latest run that created or referenced the issue key,
// either as the main issue or as one of its subtasks.
func (s *Store) FindByKey(ctx context.Context, key string) (*Entry, error) {
	ctx = ensureContext(ctx)
	key = strings.ToUpper(strings.TrimSpace(key))
	if key == "" {
		return nil, services.Wrap(services.ErrValidation, "history", "find", "issue key required", nil)
	}
	var entry Entry
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx,
			`SELECT `+selectColumns+` FROM runs
             WHERE issue_key = ? OR (',' || subtask_keys || ',') LIKE ?
             ORDER BY created_at DESC, id DESC LIMIT 1`,
			key, "%,"+key+",%")
		var scanErr error
		entry, scanErr = scanEntry(row)
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "history", "find", fmt.Sprintf("no run recorded for %s", key), nil)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry      Entry
		status     string
		sourceRef  sql.NullString
		issueKey   sql.NullString
		issueURL   sql.NullString
		issueType  sql.NullString
		summary    sql.NullString
		subtasks   sql.NullString
		parentKey  sql.NullString
		excerpt    sql.NullString
		errMessage sql.NullString
		createdAt  string
		durationMS int64
	)
	if err := row.Scan(
		&entry.ID, &entry.RunID, &status, &entry.SourceKind, &sourceRef, &issueKey, &issueURL,
		&issueType, &summary, &subtasks, &parentKey, &excerpt, &errMessage, &createdAt, &durationMS,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan run: %w", err)
	}
	entry.Status = Status(status)
	entry.SourceRef = sourceRef.String
	entry.IssueKey = issueKey.String
	entry.IssueURL = issueURL.String
	entry.IssueType = issueType.String
	entry.Summary = summary.String
	if subtasks.String != "" {
		entry.Subtasks = strings.Split(subtasks.String, ",")
	}
	entry.ParentKey = parentKey.String
	entry.Excerpt = excerpt.String
	entry.Error = errMessage.String
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		entry.CreatedAt = ts
	}
	entry.Duration = time.Duration(durationMS) * time.Millisecond
	return entry, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func clipExcerpt(value string) string {
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) <= MaxExcerptRunes {
		return value
	}
	runes := []rune(value)
	return strings.TrimSpace(string(runes[:MaxExcerptRunes-1])) + "…"
}
