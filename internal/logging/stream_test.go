package logging

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestStreamHandlerWithAttrs(t *testing.T) {
	hub := NewStreamHub(100)
	base := slog.NewTextHandler(discardWriter{}, nil)
	logger := slog.New(newStreamHandler(base, hub)).With(slog.String(FieldRunID, "run-1"))

	logger.Info("test message", slog.String("extra", "value"))

	events, _ := hub.Tail(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].RunID != "run-1" {
		t.Errorf("expected run_id=run-1, got %q", events[0].RunID)
	}
	if events[0].Message != "test message" {
		t.Errorf("expected message='test message', got %q", events[0].Message)
	}
	if events[0].Fields["extra"] != "value" {
		t.Errorf("expected extra field, got %v", events[0].Fields)
	}
}

func TestStreamHandlerNestedWithAttrs(t *testing.T) {
	hub := NewStreamHub(100)
	base := slog.NewTextHandler(discardWriter{}, nil)
	logger := slog.New(newStreamHandler(base, hub)).
		With(slog.String(FieldComponent, "workflow")).
		With(slog.String(FieldRunID, "run-9")).
		With(slog.String(FieldStage, "draft"))

	logger.Info("drafting")

	events, _ := hub.Tail(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	evt := events[0]
	if evt.Component != "workflow" || evt.RunID != "run-9" || evt.Stage != "draft" {
		t.Errorf("unexpected event fields: %+v", evt)
	}
}

func TestStreamHandlerCallSiteOverridesWithAttrs(t *testing.T) {
	hub := NewStreamHub(100)
	base := slog.NewTextHandler(discardWriter{}, nil)
	logger := slog.New(newStreamHandler(base, hub)).With(slog.String(FieldStage, "original"))

	logger.Info("message", slog.String(FieldStage, "overridden"))

	events, _ := hub.Tail(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Stage != "overridden" {
		t.Errorf("expected stage='overridden', got %q", events[0].Stage)
	}
}

func TestStreamHandlerNilHub(t *testing.T) {
	base := slog.NewTextHandler(discardWriter{}, nil)
	if handler := newStreamHandler(base, nil); handler != base {
		t.Errorf("expected base handler when hub is nil")
	}
}

func TestStreamHandlerEnabled(t *testing.T) {
	hub := NewStreamHub(100)
	base := slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	handler := newStreamHandler(base, hub)

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected INFO to be disabled when base level is WARN")
	}
	if !handler.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("expected WARN to be enabled when base level is WARN")
	}
}

func TestStreamHubEvictsOldest(t *testing.T) {
	hub := NewStreamHub(3)
	for i := 0; i < 5; i++ {
		hub.Publish(LogEvent{Message: "m"})
	}
	events, last := hub.Tail(10)
	if len(events) != 3 {
		t.Fatalf("expected 3 buffered events, got %d", len(events))
	}
	if events[0].Sequence != 3 || last != 5 {
		t.Fatalf("unexpected sequences: first=%d last=%d", events[0].Sequence, last)
	}
	if hub.FirstSequence() != 3 {
		t.Fatalf("expected first sequence 3, got %d", hub.FirstSequence())
	}
}

func TestStreamHubFetchPagesBySequence(t *testing.T) {
	hub := NewStreamHub(10)
	for i := 0; i < 4; i++ {
		hub.Publish(LogEvent{Message: "m"})
	}
	events, next, err := hub.Fetch(context.Background(), 1, 2, false)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(events) != 2 || events[0].Sequence != 2 || next != 3 {
		t.Fatalf("unexpected page: %d events, next=%d", len(events), next)
	}
	events, next, _ = hub.Fetch(context.Background(), next, 10, false)
	if len(events) != 1 || next != 4 {
		t.Fatalf("unexpected second page: %d events, next=%d", len(events), next)
	}
	events, _, _ = hub.Fetch(context.Background(), next, 10, false)
	if len(events) != 0 {
		t.Fatalf("expected no events past the end, got %d", len(events))
	}
}

func TestStreamHubFetchWaitsForPublish(t *testing.T) {
	hub := NewStreamHub(10)
	done := make(chan []LogEvent, 1)
	go func() {
		events, _, _ := hub.Fetch(context.Background(), 0, 10, true)
		done <- events
	}()

	time.Sleep(20 * time.Millisecond)
	hub.Publish(LogEvent{Message: "wake"})

	select {
	case events := <-done:
		if len(events) != 1 || events[0].Message != "wake" {
			t.Fatalf("unexpected events: %+v", events)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not wake after Publish")
	}
}

func TestStreamHubFetchHonoursCancellation(t *testing.T) {
	hub := NewStreamHub(10)
	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, _, err := hub.Fetch(ctx, 0, 10, true)
		errs <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("expected context error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not return after cancellation")
	}
}

func TestStreamHubFetchDeliversBufferedEventsAfterCancel(t *testing.T) {
	hub := NewStreamHub(10)
	hub.Publish(LogEvent{Message: "ticket run completed"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events, next, err := hub.Fetch(ctx, 0, 10, true)
	if err != nil {
		t.Fatalf("expected buffered event without error, got %v", err)
	}
	if len(events) != 1 || events[0].Message != "ticket run completed" || next != 1 {
		t.Fatalf("unexpected fetch: %d events, next=%d", len(events), next)
	}

	events, next, err = hub.Fetch(ctx, next, 10, true)
	if err == nil || len(events) != 0 {
		t.Fatalf("expected context error once drained, got %d events err=%v", len(events), err)
	}
	if next != 1 {
		t.Fatalf("expected cursor to stay at 1, got %d", next)
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
