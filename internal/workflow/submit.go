package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"ticketsmith/internal/logging"
	"ticketsmith/internal/manifest"
	"ticketsmith/internal/notifications"
	"ticketsmith/internal/services"
	"ticketsmith/internal/source"
)

// Submit creates a fully written ticket without consulting the agent. With
// dryRun set it stops after conversion.
func (p *Pipeline) Submit(ctx context.Context, ticket manifest.Ticket, dryRun bool) (Result, error) {
	d := ticket.Draft(p.cfg.Jira.DefaultIssueType)
	d.Override("", "", p.cfg.Jira.Labels)
	req := source.Request{
		Kind:      source.KindText,
		Value:     d.Description,
		IssueType: d.IssueType,
		Parent:    ticket.Parent,
		Labels:    d.Labels,
		Summary:   d.Summary,
		Origin:    "manifest",
	}
	state := p.begin(ctx, req)
	state.result.Draft = d
	state.result.DryRun = dryRun
	ctx = services.WithRunID(ctx, state.id)

	steps := []stageStep{{StageConvert, p.convert}}
	if !dryRun {
		if p.tracker == nil {
			return state.result, services.Wrap(services.ErrConfiguration, StageCreate, "jira", "issue tracker not configured", nil)
		}
		steps = append(steps,
			stageStep{StageCreate, p.create},
			stageStep{StageSubtasks, p.subtasks},
			stageStep{StageLink, p.link},
		)
	}
	err := p.execute(ctx, state, steps)
	if !dryRun {
		p.record(ctx, state, err)
		p.notify(ctx, state, err)
	}
	return state.result, err
}

// SubmitBatch submits every manifest ticket in order. A failing ticket does
// not stop the batch; the returned error joins every failure.
func (p *Pipeline) SubmitBatch(ctx context.Context, m *manifest.Manifest, dryRun bool) ([]Result, error) {
	if m == nil {
		return nil, services.Wrap(services.ErrValidation, "batch", "submit", "manifest required", nil)
	}
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("tickets", len(m.Tickets)),
		logging.String("manifest", m.Path),
		logging.Bool("dry_run", dryRun),
	)

	results := make([]Result, 0, len(m.Tickets))
	var (
		errs   []error
		failed int
	)
	for i, ticket := range m.Tickets {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := p.Submit(ctx, ticket, dryRun)
		results = append(results, res)
		if err != nil {
			failed++
			errs = append(errs, fmt.Errorf("ticket %d (%s): %w", i+1, ticket.Summary, err))
		}
	}

	level := slog.LevelInfo
	if len(errs) > 0 {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "batch finished",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("submitted", len(results)-failed),
		logging.Int("failed", failed),
	)
	if !dryRun {
		p.publish(ctx, notifications.EventBatchCompleted, notifications.Payload{
			"submitted": len(results) - failed,
			"failed":    failed,
			"manifest":  filepath.Base(m.Path),
		})
	}
	return results, errors.Join(errs...)
}
