package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"ticketsmith/internal/adf"
	"ticketsmith/internal/history"
	"ticketsmith/internal/logging"
	"ticketsmith/internal/services"
	"ticketsmith/internal/source"
)

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Running        bool      `json:"running"`
	PID            int       `json:"pid"`
	StartedAt      time.Time `json:"started_at"`
	ActiveRuns     int       `json:"active_runs"`
	HistoryPath    string    `json:"history_path"`
	LockPath       string    `json:"lock_path"`
	JiraConfigured bool      `json:"jira_configured"`
	AgentBackend   string    `json:"agent_backend"`
	ProjectKey     string    `json:"project_key,omitempty"`
}

// ConvertRequest is the body of POST /api/convert.
type ConvertRequest struct {
	Text string `json:"text"`
}

// ConvertResponse carries the ADF document and any schema issues.
type ConvertResponse struct {
	Document adf.Document `json:"document"`
	Valid    bool         `json:"valid"`
	Issues   []adf.Issue  `json:"issues,omitempty"`
}

// TicketRequest is the body of POST /api/tickets.
type TicketRequest struct {
	source.Request
	DryRun bool `json:"dry_run"`
}

// TicketAccepted is returned when a run starts.
type TicketAccepted struct {
	RunID     string `json:"run_id"`
	StatusURL string `json:"status_url"`
	EventsURL string `json:"events_url"`
}

// HistoryResponse is returned by GET /api/history.
type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, StatusResponse{
		Running:        true,
		PID:            os.Getpid(),
		StartedAt:      s.startedAt.UTC(),
		ActiveRuns:     s.runs.active(),
		HistoryPath:    s.cfg.HistoryPath(),
		LockPath:       s.cfg.LockPath(),
		JiraConfigured: s.cfg.RequireJira() == nil,
		AgentBackend:   s.cfg.Agent.Backend,
		ProjectKey:     s.cfg.Jira.ProjectKey,
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var text string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body ConvertRequest
		if err := decodeBody(w, r, &body); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		text = body.Text
	} else {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "read body: "+err.Error())
			return
		}
		text = string(raw)
	}

	doc := adf.Convert(text)
	resp := ConvertResponse{Document: doc, Valid: true}
	if err := adf.Validate(doc); err != nil {
		resp.Valid = false
		var verr *adf.ValidationError
		if errors.As(err, &verr) {
			resp.Issues = verr.Issues
		} else {
			resp.Issues = []adf.Issue{{Message: err.Error()}}
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTickets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body TicketRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := body.Request
	req.Parent = strings.ToUpper(strings.TrimSpace(req.Parent))
	if err := req.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !body.DryRun {
		if err := s.cfg.RequireJira(); err != nil {
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}

	rec := s.startRun(r, req, body.DryRun)
	id := rec.snapshot().RunID
	logging.WithContext(services.WithRunID(r.Context(), id), s.logger).Info("ticket run accepted",
		logging.String("source_kind", string(req.Kind)),
		logging.Bool("dry_run", body.DryRun),
	)
	w.Header().Set("Location", "/api/tickets/"+id)
	s.writeJSON(w, http.StatusAccepted, TicketAccepted{
		RunID:     id,
		StatusURL: "/api/tickets/" + id,
		EventsURL: "/api/events?run=" + id,
	})
}

func (s *Server) handleTicket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/tickets/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	rec, ok := s.runs.get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.writeJSON(w, http.StatusOK, rec.snapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.history == nil {
		s.writeJSON(w, http.StatusOK, HistoryResponse{Entries: nil})
		return
	}
	query := r.URL.Query()
	if key := strings.TrimSpace(query.Get("key")); key != "" {
		entry, err := s.history.FindByKey(r.Context(), key)
		if err != nil {
			s.writeError(w, statusForError(err), err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, HistoryResponse{Entries: []history.Entry{*entry}})
		return
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	entries, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, statusForError(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, HistoryResponse{Entries: entries})
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body required")
		}
		return errors.New("invalid json: " + err.Error())
	}
	return nil
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrExternalTool), errors.Is(err, services.ErrTransient):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
