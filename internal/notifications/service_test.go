package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ticketsmith/internal/config"
	"ticketsmith/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTicketCreated, notifications.Payload{"issueKey": "OPS-1"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("expected noop notifier for nil config, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
		expectClick    string
	}{
		{
			name:  "ticket created",
			event: notifications.EventTicketCreated,
			payload: notifications.Payload{
				"issueKey":  "OPS-12",
				"summary":   "Fix login redirect",
				"issueType": "Bug",
				"url":       "https://example.atlassian.net/browse/OPS-12",
				"subtasks":  2,
			},
			expectTitle:   "ticketsmith - Ticket Created",
			expectMessage: "🎫 OPS-12: Fix login redirect\n2 subtask(s)",
			expectTags:    "ticketsmith,jira,bug",
			expectClick:   "https://example.atlassian.net/browse/OPS-12",
		},
		{
			name:  "run failed",
			event: notifications.EventRunFailed,
			payload: notifications.Payload{
				"summary": "Fix login redirect",
				"error":   "jira unavailable",
			},
			expectTitle:    "ticketsmith - Run Failed",
			expectMessage:  "❌ Ticket run failed for Fix login redirect: jira unavailable",
			expectTags:     "ticketsmith,error,alert",
			expectPriority: "high",
		},
		{
			name:          "batch completed",
			event:         notifications.EventBatchCompleted,
			payload:       notifications.Payload{"submitted": 3, "manifest": "sprint.yaml"},
			expectTitle:   "ticketsmith - Batch Complete",
			expectMessage: "📋 3 ticket(s) created from sprint.yaml",
			expectTags:    "ticketsmith,batch,completed",
		},
		{
			name:          "batch with failures",
			event:         notifications.EventBatchCompleted,
			payload:       notifications.Payload{"submitted": 2, "failed": 1, "manifest": "sprint.yaml"},
			expectTitle:   "ticketsmith - Batch Complete (with errors)",
			expectMessage: "📋 2 created, 1 failed from sprint.yaml",
			expectTags:    "ticketsmith,batch,completed",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "ticketsmith - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "ticketsmith,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title, tags, priority, click, body string
			}
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				captured.click = r.Header.Get("Click")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeoutSeconds = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
			if captured.click != tc.expectClick {
				t.Fatalf("expected click %q, got %q", tc.expectClick, captured.click)
			}
		})
	}
}

func TestNtfyServiceIgnoresUnknownEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for unknown event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if err := notifications.NewService(&cfg).Publish(context.Background(), "mystery", nil); err != nil {
		t.Fatalf("expected no error for unknown event, got %v", err)
	}
}

func TestNtfyServiceReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "topic is read-only")
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "read-only") {
		t.Fatalf("expected ntfy failure with body, got %v", err)
	}
}
