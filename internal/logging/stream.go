package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const defaultStreamCapacity = 512

// LogEvent represents a structured log line published to the streaming hub.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     time.Time         `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	RunID         string            `json:"run_id,omitempty"`
	Stage         string            `json:"stage,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// StreamHub keeps the most recent log events in a ring and wakes waiters when
// new events arrive. Sequence numbers start at 1 and have no gaps, so an
// event's ring position follows from its sequence.
type StreamHub struct {
	mu   sync.Mutex
	cond *sync.Cond
	ring []LogEvent
	// head indexes the oldest buffered event; size counts buffered events.
	head int
	size int
	last uint64
}

// NewStreamHub constructs a hub holding at most capacity events.
func NewStreamHub(capacity int) *StreamHub {
	if capacity <= 0 {
		capacity = defaultStreamCapacity
	}
	h := &StreamHub{ring: make([]LogEvent, capacity)}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// Publish stamps evt with the next sequence and buffers it, overwriting the
// oldest event once the ring is full.
func (h *StreamHub) Publish(evt LogEvent) {
	if h == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last++
	evt.Sequence = h.last
	if h.size < len(h.ring) {
		h.ring[(h.head+h.size)%len(h.ring)] = evt
		h.size++
	} else {
		h.ring[h.head] = evt
		h.head = (h.head + 1) % len(h.ring)
	}
	h.cond.Broadcast()
}

// Fetch returns up to limit events with sequence greater than since, plus the
// sequence to pass as since on the next call. With wait set it blocks until an
// event is available or ctx ends; a ctx error never advances the cursor.
func (h *StreamHub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]LogEvent, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if wait && ctx != nil && ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			h.mu.Lock()
			h.cond.Broadcast()
			h.mu.Unlock()
		})
		defer stop()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		// Buffered events are delivered even when ctx has already ended.
		if events := h.afterLocked(since, limit); len(events) > 0 {
			return events, events[len(events)-1].Sequence, nil
		}
		if err := contextError(ctx); err != nil {
			return nil, since, err
		}
		if !wait {
			return nil, max(since, h.last), nil
		}
		h.cond.Wait()
	}
}

// Tail returns the newest limit events without blocking, along with the
// latest sequence.
func (h *StreamHub) Tail(limit int) ([]LogEvent, uint64) {
	if h == nil {
		return nil, 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	n := h.size
	if limit > 0 && limit < n {
		n = limit
	}
	return h.copyLocked(h.size-n, n), h.last
}

// FirstSequence reports the oldest sequence still buffered, or the latest
// sequence when the hub is empty.
func (h *StreamHub) FirstSequence() uint64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.size == 0 {
		return h.last
	}
	return h.ring[h.head].Sequence
}

func (h *StreamHub) afterLocked(since uint64, limit int) []LogEvent {
	if h.size == 0 || since >= h.last {
		return nil
	}
	first := h.last - uint64(h.size) + 1
	offset := 0
	if since >= first {
		offset = int(since - first + 1)
	}
	n := h.size - offset
	if limit > 0 && limit < n {
		n = limit
	}
	return h.copyLocked(offset, n)
}

// copyLocked copies n events starting offset positions after head.
func (h *StreamHub) copyLocked(offset, n int) []LogEvent {
	out := make([]LogEvent, n)
	for i := range n {
		out[i] = h.ring[(h.head+offset+i)%len(h.ring)]
	}
	return out
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

// streamHandler publishes every record to a hub before delegating.
type streamHandler struct {
	next  slog.Handler
	hub   *StreamHub
	attrs []slog.Attr
}

func newStreamHandler(next slog.Handler, hub *StreamHub) slog.Handler {
	if hub == nil || next == nil {
		return next
	}
	return &streamHandler{next: next, hub: hub}
}

func (h *streamHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *streamHandler) Handle(ctx context.Context, record slog.Record) error {
	h.hub.Publish(eventFromRecord(record, h.attrs))
	return h.next.Handle(ctx, record.Clone())
}

func (h *streamHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &streamHandler{next: h.next.WithAttrs(attrs), hub: h.hub, attrs: merged}
}

func (h *streamHandler) WithGroup(name string) slog.Handler {
	return &streamHandler{next: h.next.WithGroup(name), hub: h.hub, attrs: h.attrs}
}

// eventFromRecord applies handler attrs first so call-site attrs override them.
func eventFromRecord(record slog.Record, preAttrs []slog.Attr) LogEvent {
	event := LogEvent{
		Timestamp: record.Time,
		Level:     strings.ToUpper(record.Level.String()),
		Message:   strings.TrimSpace(record.Message),
	}

	apply := func(attr slog.Attr) {
		key := strings.TrimSpace(attr.Key)
		if key == "" {
			return
		}
		value := attrString(attr.Value)
		switch key {
		case FieldComponent:
			event.Component = value
		case FieldRunID:
			event.RunID = value
		case FieldStage:
			event.Stage = value
		case FieldCorrelationID:
			event.CorrelationID = value
		default:
			if event.Fields == nil {
				event.Fields = make(map[string]string)
			}
			event.Fields[key] = value
		}
	}

	for _, attr := range preAttrs {
		apply(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		apply(attr)
		return true
	})
	return event
}
