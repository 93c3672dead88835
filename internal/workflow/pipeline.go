package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ticketsmith/internal/config"
	"ticketsmith/internal/logging"
	"ticketsmith/internal/notifications"
	"ticketsmith/internal/services"
	"ticketsmith/internal/source"
)

// Pipeline runs ticket requests through the workflow stages.
type Pipeline struct {
	cfg      *config.Config
	drafter  Drafter
	tracker  Tracker
	recorder Recorder
	notifier notifications.Service
	logger   *slog.Logger
	newRunID func() string
	now      func() time.Time
}

// Option configures optional Pipeline collaborators.
type Option func(*Pipeline)

// WithDrafter sets the drafting backend.
func WithDrafter(drafter Drafter) Option {
	return func(p *Pipeline) {
		p.drafter = drafter
	}
}

// WithTracker sets the issue tracker client.
func WithTracker(tracker Tracker) Option {
	return func(p *Pipeline) {
		p.tracker = tracker
	}
}

// WithRecorder sets the history recorder.
func WithRecorder(recorder Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = recorder
	}
}

// WithNotifier sets where run outcomes are pushed.
func WithNotifier(notifier notifications.Service) Option {
	return func(p *Pipeline) {
		p.notifier = notifier
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRunIDGenerator overrides run id generation (used in tests).
func WithRunIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newRunID = fn
		}
	}
}

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New constructs a pipeline. Collaborators are optional: Preview only needs a
// drafter, Submit only needs a tracker.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		logger:   logging.NewNop(),
		newRunID: uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "workflow")
	return p
}

type stageFunc func(ctx context.Context, logger *slog.Logger, state *runState) error

type stageStep struct {
	name string
	run  stageFunc
}

// Run drafts, converts, and creates a ticket for the request.
func (p *Pipeline) Run(ctx context.Context, req source.Request) (Result, error) {
	state := p.begin(ctx, req)
	ctx = services.WithRunID(ctx, state.id)
	if p.tracker == nil {
		return state.result, services.Wrap(services.ErrConfiguration, StageCreate, "jira", "issue tracker not configured", nil)
	}
	err := p.execute(ctx, state, []stageStep{
		{StagePrepare, p.prepare},
		{StageDraft, p.draft},
		{StageConvert, p.convert},
		{StageCreate, p.create},
		{StageSubtasks, p.subtasks},
		{StageLink, p.link},
		{StageAttach, p.attach},
	})
	p.record(ctx, state, err)
	p.notify(ctx, state, err)
	return state.result, err
}

// Preview drafts and converts without touching Jira or the history store.
func (p *Pipeline) Preview(ctx context.Context, req source.Request) (Result, error) {
	state := p.begin(ctx, req)
	state.result.DryRun = true
	ctx = services.WithRunID(ctx, state.id)
	err := p.execute(ctx, state, []stageStep{
		{StagePrepare, p.prepare},
		{StageDraft, p.draft},
		{StageConvert, p.convert},
	})
	return state.result, err
}

func (p *Pipeline) begin(ctx context.Context, req source.Request) *runState {
	id, ok := services.RunIDFromContext(ctx)
	if !ok {
		id = p.newRunID()
	}
	return &runState{
		id:      id,
		req:     req,
		started: p.now(),
		result:  Result{RunID: id, Request: req},
	}
}

func (p *Pipeline) execute(ctx context.Context, state *runState, steps []stageStep) error {
	logger := logging.WithContext(ctx, p.logger)
	logger.Info(
		"ticket run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("source_kind", string(state.req.Kind)),
		logging.Bool("dry_run", state.result.DryRun),
	)

	var runErr error
	for _, step := range steps {
		if runErr = p.runStage(ctx, step.name, state, step.run); runErr != nil {
			break
		}
	}
	state.result.Duration = p.now().Sub(state.started)

	if runErr != nil {
		logging.ErrorWithContext(logger, "ticket run failed", "run_failure",
			logging.Error(runErr),
			logging.Duration("run_duration", state.result.Duration),
		)
		return runErr
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Duration("run_duration", state.result.Duration),
		logging.Int("warnings", len(state.result.Warnings)),
	}
	if state.result.Issue != nil {
		attrs = append(attrs,
			logging.IssueKey(state.result.Issue.Key),
			logging.String("issue_url", state.result.Issue.URL),
		)
	}
	logger.Info("ticket run completed", logging.Args(attrs...)...)
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, name string, state *runState, fn stageFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, p.logger)
	start := p.now()
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := fn(stageCtx, logger, state); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("stage interrupted by cancellation")
			return err
		}
		logging.ErrorWithContext(logger, "stage failed", "stage_failure", logging.Error(err))
		return err
	}
	logger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", p.now().Sub(start)),
	)
	return nil
}

func (s *runState) warn(logger *slog.Logger, msg, impact string, err error) {
	s.result.Warnings = append(s.result.Warnings, msg+": "+err.Error())
	logging.WarnWithContext(logger, msg, "followup_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, impact),
	)
}

// notify pushes the outcome of a run that reached Jira or failed trying.
// Cancelled runs are not reported.
func (p *Pipeline) notify(ctx context.Context, state *runState, runErr error) {
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return
		}
		p.publish(ctx, notifications.EventRunFailed, notifications.Payload{
			"summary": state.result.Draft.Summary,
			"error":   runErr.Error(),
		})
		return
	}
	if state.result.Issue == nil {
		return
	}
	p.publish(ctx, notifications.EventTicketCreated, notifications.Payload{
		"issueKey":  state.result.Issue.Key,
		"summary":   state.result.Draft.Summary,
		"issueType": state.result.Draft.IssueType,
		"url":       state.result.Issue.URL,
		"subtasks":  len(state.result.Subtasks),
	})
}

func (p *Pipeline) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "notification failed", "notify_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "ticket outcome not pushed"),
		)
	}
}
