package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ticketsmith/internal/config"
)

const userAgent = "ticketsmith/0.1"

// Event identifies a notification type.
type Event string

const (
	EventTicketCreated  Event = "ticket_created"
	EventRunFailed      Event = "run_failed"
	EventBatchCompleted Event = "batch_completed"
	EventTest           Event = "test"
)

// Payload carries event-specific values.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed service, or a no-op one when
// notifications.ntfy_topic is empty.
func NewService(cfg *config.Config) Service {
	if cfg == nil || strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: strings.TrimSpace(cfg.Notifications.NtfyTopic),
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
	click    string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventTicketCreated:
		key := text(payload, "issueKey")
		body := fmt.Sprintf("🎫 %s: %s", key, text(payload, "summary"))
		if subtasks := number(payload, "subtasks"); subtasks > 0 {
			body += fmt.Sprintf("\n%d subtask(s)", subtasks)
		}
		return message{
			title: "ticketsmith - Ticket Created",
			body:  body,
			tags:  []string{"ticketsmith", "jira", strings.ToLower(fallback(text(payload, "issueType"), "ticket"))},
			click: text(payload, "url"),
		}, true
	case EventRunFailed:
		var b strings.Builder
		b.WriteString("❌ Ticket run failed")
		if summary := text(payload, "summary"); summary != "" {
			b.WriteString(" for ")
			b.WriteString(summary)
		}
		b.WriteString(": ")
		b.WriteString(fallback(text(payload, "error"), "unknown"))
		return message{
			title:    "ticketsmith - Run Failed",
			body:     b.String(),
			tags:     []string{"ticketsmith", "error", "alert"},
			priority: "high",
		}, true
	case EventBatchCompleted:
		submitted, failed := number(payload, "submitted"), number(payload, "failed")
		msg := message{
			title: "ticketsmith - Batch Complete",
			body:  fmt.Sprintf("📋 %d ticket(s) created from %s", submitted, fallback(text(payload, "manifest"), "manifest")),
			tags:  []string{"ticketsmith", "batch", "completed"},
		}
		if failed > 0 {
			msg.title = "ticketsmith - Batch Complete (with errors)"
			msg.body = fmt.Sprintf("📋 %d created, %d failed from %s", submitted, failed, fallback(text(payload, "manifest"), "manifest"))
		}
		return msg, true
	case EventTest:
		return message{
			title:    "ticketsmith - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"ticketsmith", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}
	if msg.click != "" {
		req.Header.Set("Click", msg.click)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func text(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	switch v := payload[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func number(payload Payload, key string) int {
	if payload == nil {
		return 0
	}
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
