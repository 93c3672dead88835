package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"ticketsmith/internal/adf"
	"ticketsmith/internal/config"
	"ticketsmith/internal/history"
	"ticketsmith/internal/logging"
	"ticketsmith/internal/notifications"
	"ticketsmith/internal/services/jira"
	"ticketsmith/internal/testsupport"
)

type fakeDrafter struct {
	mu     sync.Mutex
	output string
	err    error
	calls  int
	system string
	user   string
}

func (f *fakeDrafter) Draft(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.system = systemPrompt
	f.user = userPrompt
	return f.output, f.err
}

type linkCall struct {
	linkType, inward, outward string
}

type fakeTracker struct {
	mu         sync.Mutex
	next       int
	created    []jira.IssueInput
	subtasks   []jira.IssueInput
	parents    []string
	links      []linkCall
	comments   map[string][]adf.Document
	createErr  error
	subtaskErr error
	linkErr    error
	commentErr error
	// failSummary makes CreateIssue fail for one summary only.
	failSummary string
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{next: 100, comments: make(map[string][]adf.Document)}
}

func (f *fakeTracker) issue() jira.Issue {
	f.next++
	key := fmt.Sprintf("OPS-%d", f.next)
	return jira.Issue{ID: fmt.Sprint(f.next), Key: key, URL: "https://example.atlassian.net/browse/" + key}
}

func (f *fakeTracker) CreateIssue(_ context.Context, in jira.IssueInput) (jira.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return jira.Issue{}, f.createErr
	}
	if f.failSummary != "" && in.Summary == f.failSummary {
		return jira.Issue{}, errors.New("summary rejected")
	}
	f.created = append(f.created, in)
	return f.issue(), nil
}

func (f *fakeTracker) CreateSubtask(_ context.Context, parentKey string, in jira.IssueInput) (jira.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subtaskErr != nil {
		return jira.Issue{}, f.subtaskErr
	}
	f.subtasks = append(f.subtasks, in)
	f.parents = append(f.parents, parentKey)
	return f.issue(), nil
}

func (f *fakeTracker) LinkIssues(_ context.Context, linkType, inwardKey, outwardKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.linkErr != nil {
		return f.linkErr
	}
	f.links = append(f.links, linkCall{linkType, inwardKey, outwardKey})
	return nil
}

func (f *fakeTracker) AddComment(_ context.Context, key string, doc adf.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commentErr != nil {
		return f.commentErr
	}
	f.comments[key] = append(f.comments[key], doc)
	return nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (f *fakeRecorder) Record(_ context.Context, entry history.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

type published struct {
	event   notifications.Event
	payload notifications.Payload
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (f *fakeNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{event, payload})
	return f.err
}

type harness struct {
	cfg      *config.Config
	drafter  *fakeDrafter
	tracker  *fakeTracker
	recorder *fakeRecorder
	notifier *fakeNotifier
	hub      *logging.StreamHub
	pipeline *Pipeline
}

func newHarness(t *testing.T, output string) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	hub := logging.NewStreamHub(256)
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: io.Discard, Hub: hub})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	h := &harness{
		cfg:      cfg,
		drafter:  &fakeDrafter{output: output},
		tracker:  newFakeTracker(),
		recorder: &fakeRecorder{},
		notifier: &fakeNotifier{},
		hub:      hub,
	}
	ids := 0
	h.pipeline = New(cfg,
		WithDrafter(h.drafter),
		WithTracker(h.tracker),
		WithRecorder(h.recorder),
		WithNotifier(h.notifier),
		WithLogger(logger),
		WithRunIDGenerator(func() string {
			ids++
			return fmt.Sprintf("run-%d", ids)
		}),
	)
	return h
}

func (h *harness) events() []logging.LogEvent {
	events, _ := h.hub.Tail(0)
	return events
}

