package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"ticketsmith/internal/logging"
)

const eventBatchLimit = 200

// eventGap names the sequences a resuming client missed.
type eventGap struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// handleEvents relays log events as server-sent events. With ?run=<id> only
// that run's events are sent and the stream ends with an "done" event once
// the run finishes. The starting point comes from ?since= or the
// Last-Event-ID header; a "gap" event reports sequences no longer buffered.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.hub == nil {
		s.writeError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	query := r.URL.Query()
	runID := strings.TrimSpace(query.Get("run"))
	var run *runRecord
	if runID != "" {
		rec, found := s.runs.get(runID)
		if !found {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		run = rec
	}
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	if since == 0 {
		since, _ = strconv.ParseUint(strings.TrimSpace(r.Header.Get("Last-Event-ID")), 10, 64)
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	if first := s.hub.FirstSequence(); since > 0 && since+1 < first {
		// The ring already evicted what the client asked for.
		if err := writeEvent(w, "gap", "", eventGap{From: since + 1, To: first - 1}); err != nil {
			return
		}
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		events, next, err := s.fetchEvents(ctx, run, since)
		for _, evt := range events {
			if runID != "" && evt.RunID != runID {
				continue
			}
			if writeErr := writeEvent(w, "log", strconv.FormatUint(evt.Sequence, 10), evt); writeErr != nil {
				return
			}
		}
		if next > since {
			since = next
		}

		if run != nil && run.finished() && since >= run.lastSequence() {
			_ = writeEvent(w, "done", "", run.snapshot())
			flusher.Flush()
			return
		}
		if ctx.Err() != nil {
			return
		}
		if err != nil && len(events) == 0 && !(run != nil && run.finished()) {
			fmt.Fprint(w, ": keepalive\n\n")
		}
		flusher.Flush()
	}
}

// fetchEvents waits up to one heartbeat for new events. The wait ends early
// when the followed run finishes so the stream can drain and close.
func (s *Server) fetchEvents(ctx context.Context, run *runRecord, since uint64) ([]logging.LogEvent, uint64, error) {
	if run != nil && run.finished() {
		return s.hub.Fetch(ctx, since, eventBatchLimit, false)
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.heartbeat)
	defer cancel()
	if run != nil {
		go func() {
			select {
			case <-run.done:
				cancel()
			case <-waitCtx.Done():
			}
		}()
	}
	return s.hub.Fetch(waitCtx, since, eventBatchLimit, true)
}

func writeEvent(w http.ResponseWriter, name, id string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var b strings.Builder
	if id != "" {
		fmt.Fprintf(&b, "id: %s\n", id)
	}
	fmt.Fprintf(&b, "event: %s\ndata: %s\n\n", name, data)
	_, err = fmt.Fprint(w, b.String())
	return err
}
