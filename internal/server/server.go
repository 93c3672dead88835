package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"ticketsmith/internal/config"
	"ticketsmith/internal/history"
	"ticketsmith/internal/logging"
	"ticketsmith/internal/services"
	"ticketsmith/internal/source"
	"ticketsmith/internal/workflow"
)

const (
	defaultHeartbeat = 15 * time.Second
	maxBodyBytes     = 1 << 20
)

// Runner executes ticket requests.
type Runner interface {
	Run(ctx context.Context, req source.Request) (workflow.Result, error)
	Preview(ctx context.Context, req source.Request) (workflow.Result, error)
}

// HistoryReader serves the history endpoint.
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]history.Entry, error)
	FindByKey(ctx context.Context, key string) (*history.Entry, error)
}

// Options wires the server's collaborators.
type Options struct {
	Config  *config.Config
	Runner  Runner
	History HistoryReader
	Hub     *logging.StreamHub
	Logger  *slog.Logger
	// Heartbeat is the SSE keep-alive interval; zero uses 15s.
	Heartbeat time.Duration
}

// Server is the ticketsmith HTTP API.
type Server struct {
	cfg       *config.Config
	runner    Runner
	history   HistoryReader
	hub       *logging.StreamHub
	logger    *slog.Logger
	heartbeat time.Duration
	runs      *runRegistry
	startedAt time.Time
	now       func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	lock     *flock.Flock
	listener net.Listener
	server   *http.Server
	handler  http.Handler
}

// New constructs a server. Start must be called to listen.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("server requires config")
	}
	if opts.Runner == nil {
		return nil, errors.New("server requires a runner")
	}
	heartbeat := opts.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       opts.Config,
		runner:    opts.Runner,
		history:   opts.History,
		hub:       opts.Hub,
		logger:    logging.NewComponentLogger(opts.Logger, "api-server"),
		heartbeat: heartbeat,
		runs:      newRunRegistry(),
		startedAt: time.Now(),
		now:       time.Now,
		baseCtx:   baseCtx,
		cancel:    cancel,
		lock:      flock.New(opts.Config.LockPath()),
	}

	mux := http.NewServeMux()
	token := strings.TrimSpace(opts.Config.Server.APIToken)
	mux.HandleFunc("/api/status", authMiddleware(token, s.handleStatus))
	mux.HandleFunc("/api/convert", authMiddleware(token, s.handleConvert))
	mux.HandleFunc("/api/tickets", authMiddleware(token, s.handleTickets))
	mux.HandleFunc("/api/tickets/", authMiddleware(token, s.handleTicket))
	mux.HandleFunc("/api/events", authMiddleware(token, s.handleEvents))
	mux.HandleFunc("/api/history", authMiddleware(token, s.handleHistory))
	s.handler = requestIDMiddleware(mux)

	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// No WriteTimeout: event streams stay open for the life of a run.
		IdleTimeout: 60 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start acquires the instance lock and begins serving on server.bind.
func (s *Server) Start(ctx context.Context) error {
	if err := s.cfg.EnsureDirectories(); err != nil {
		return err
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return services.Wrap(services.ErrConfiguration, "serve", "lock",
			fmt.Sprintf("another ticketsmith server holds %s", s.cfg.LockPath()), nil)
	}
	if err := os.WriteFile(s.cfg.LockPath(), []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644); err != nil {
		s.logger.Debug("write pid to lock file failed", logging.Error(err))
	}

	listener, err := net.Listen("tcp", s.cfg.Server.Bind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.baseCtx.Done():
		}
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth", strings.TrimSpace(s.cfg.Server.APIToken) != ""),
	)
	return nil
}

// Addr returns the bound listener address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop cancels in-flight runs, shuts the listener down, and releases the lock.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	s.cancel()
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	s.wg.Wait()
	if s.lock != nil && s.lock.Locked() {
		_ = s.lock.Unlock()
	}
}

// Wait blocks until every run started through the server has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) startRun(r *http.Request, req source.Request, dryRun bool) *runRecord {
	id := uuid.NewString()
	rec := s.runs.start(id, req, dryRun, s.now())

	ctx := services.WithRunID(s.baseCtx, id)
	if rid, ok := services.RequestIDFromContext(r.Context()); ok {
		ctx = services.WithRequestID(ctx, rid)
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		var (
			result workflow.Result
			err    error
		)
		if dryRun {
			result, err = s.runner.Preview(ctx, req)
		} else {
			result, err = s.runner.Run(ctx, req)
		}
		_, seq := s.hub.Tail(1)
		rec.finish(result, err, seq, s.now())
	}()
	return rec
}
