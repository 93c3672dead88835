package history_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"ticketsmith/internal/history"
	"ticketsmith/internal/services"
	"ticketsmith/internal/testsupport"
)

func TestOpenCreatesSchemaOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if store.Path() != cfg.HistoryPath() {
		t.Fatalf("unexpected path %q", store.Path())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
}

func TestRecordAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []history.Entry{
		{RunID: "run-1", SourceKind: "text", IssueKey: "OPS-1", Summary: "first", CreatedAt: base},
		{RunID: "run-2", SourceKind: "log", IssueKey: "OPS-2", Summary: "second", Subtasks: []string{"OPS-3", "OPS-4"}, CreatedAt: base.Add(time.Minute), Duration: 1500 * time.Millisecond},
		{RunID: "run-3", SourceKind: "figma", Status: history.StatusFailed, Error: "jira down", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, entry := range entries {
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record(%s) failed: %v", entry.RunID, err)
		}
	}

	listed, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(listed))
	}
	if listed[0].RunID != "run-3" || listed[0].Status != history.StatusFailed || listed[0].Error != "jira down" {
		t.Fatalf("unexpected newest entry: %+v", listed[0])
	}
	second := listed[1]
	if second.Status != history.StatusCreated {
		t.Fatalf("expected default status, got %q", second.Status)
	}
	if strings.Join(second.Subtasks, ",") != "OPS-3,OPS-4" || second.Duration != 1500*time.Millisecond {
		t.Fatalf("unexpected second entry: %+v", second)
	}
	if !second.CreatedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected created_at %v", second.CreatedAt)
	}
}

func TestRecordReplacesSameRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.Record(ctx, history.Entry{RunID: "run-1", SourceKind: "text", Status: history.StatusFailed}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, history.Entry{RunID: "run-1", SourceKind: "text", IssueKey: "OPS-9"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	listed, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 1 || listed[0].IssueKey != "OPS-9" || listed[0].Status != history.StatusCreated {
		t.Fatalf("expected replaced entry, got %+v", listed)
	}
}

func TestRecordRequiresRunID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	err := store.Record(context.Background(), history.Entry{SourceKind: "text"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordClipsExcerpt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.Record(ctx, history.Entry{RunID: "run-1", SourceKind: "text", Excerpt: strings.Repeat("x", 1000)}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	listed, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if got := len([]rune(listed[0].Excerpt)); got != history.MaxExcerptRunes {
		t.Fatalf("expected clipped excerpt of %d runes, got %d", history.MaxExcerptRunes, got)
	}
}

func TestFindByKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.Record(ctx, history.Entry{RunID: "run-1", SourceKind: "text", IssueKey: "OPS-10", Subtasks: []string{"OPS-11", "OPS-110"}}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	for _, key := range []string{"OPS-10", "ops-11", "OPS-110"} {
		entry, err := store.FindByKey(ctx, key)
		if err != nil {
			t.Fatalf("FindByKey(%s) failed: %v", key, err)
		}
		if entry.RunID != "run-1" {
			t.Fatalf("unexpected entry for %s: %+v", key, entry)
		}
	}

	if _, err := store.FindByKey(ctx, "OPS-1"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for OPS-1, got %v", err)
	}
	if _, err := store.FindByKey(ctx, " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOpenRejectsOtherSchemaVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.HistoryPath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 9"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := history.OpenPath(cfg.HistoryPath()); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
