package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"ticketsmith/internal/adf"
	"ticketsmith/internal/draft"
	"ticketsmith/internal/history"
	"ticketsmith/internal/logging"
	"ticketsmith/internal/prompt"
	"ticketsmith/internal/services"
	"ticketsmith/internal/services/jira"
	"ticketsmith/internal/source"
)

func (p *Pipeline) prepare(_ context.Context, logger *slog.Logger, state *runState) error {
	req := state.req
	req.Parent = strings.ToUpper(strings.TrimSpace(req.Parent))
	if err := req.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, StagePrepare, "validate request", "", err)
	}

	maxBytes := p.cfg.Agent.MaxInputBytes
	switch req.Kind {
	case source.KindFigma:
		ref, err := source.ParseFigma(req.Value)
		if err != nil {
			return services.Wrap(services.ErrValidation, StagePrepare, "parse figma link", "", err)
		}
		state.material.Figma = &ref
		logger.Info("figma link parsed",
			logging.String("file_key", ref.FileKey),
			logging.String("node_id", ref.NodeID),
		)
	case source.KindLog:
		excerpt, err := source.ReadLog(strings.NewReader(req.Value), maxBytes)
		if err != nil {
			return services.Wrap(services.ErrValidation, StagePrepare, "read log", "", err)
		}
		state.material.Log = &excerpt
		logger.Info("log excerpt prepared",
			logging.Int64("total_bytes", excerpt.TotalBytes),
			logging.Int("total_lines", excerpt.TotalLines),
			logging.Bool("truncated", excerpt.Truncated),
		)
	case source.KindText:
		if maxBytes > 0 && len(req.Value) > maxBytes {
			return services.Wrap(services.ErrValidation, StagePrepare, "check size",
				fmt.Sprintf("text is %d bytes, agent.max_input_bytes is %d", len(req.Value), maxBytes), nil)
		}
	}
	state.req = req
	state.result.Request = req
	return nil
}

func (p *Pipeline) draft(ctx context.Context, logger *slog.Logger, state *runState) error {
	if p.drafter == nil {
		return services.Wrap(services.ErrConfiguration, StageDraft, "agent", "drafting backend not configured", nil)
	}
	req := state.req
	userPrompt := prompt.Build(req, state.material)
	logger.Debug("requesting draft", logging.Int("prompt_bytes", len(userPrompt)))

	raw, err := p.drafter.Draft(ctx, prompt.SystemPrompt, userPrompt)
	if err != nil {
		return err
	}

	d := draft.Parse(raw, p.cfg.Jira.DefaultIssueType)
	d.Override(req.Summary, req.IssueType, append(append([]string(nil), p.cfg.Jira.Labels...), req.Labels...))
	if ref := state.material.Figma; ref != nil && !strings.Contains(d.Description, ref.URL) {
		d.Description = strings.TrimSpace(d.Description + "\n\nDesign: " + ref.URL)
	}
	if strings.TrimSpace(d.Summary) == "" {
		return services.Wrap(services.ErrExternalTool, StageDraft, "parse draft", "agent output has no usable summary", nil)
	}
	state.result.Draft = d

	logger.Info("draft ready",
		logging.String("summary", d.Summary),
		logging.String("issue_type", d.IssueType),
		logging.Bool("structured", d.Structured),
		logging.Int("subtasks", len(d.Subtasks)),
	)
	return nil
}

func (p *Pipeline) convert(_ context.Context, logger *slog.Logger, state *runState) error {
	d := state.result.Draft
	doc := d.Document()
	if err := adf.Validate(doc); err != nil {
		return services.Wrap(services.ErrValidation, StageConvert, "validate description", "", err)
	}
	for i, sub := range d.Subtasks {
		if err := adf.Validate(adf.Convert(sub.Description)); err != nil {
			return services.Wrap(services.ErrValidation, StageConvert, "validate subtask", fmt.Sprintf("subtask %d", i+1), err)
		}
	}
	state.result.Document = doc
	logger.Debug("description converted", logging.Int("blocks", len(doc.Blocks)))
	return nil
}

func (p *Pipeline) create(ctx context.Context, logger *slog.Logger, state *runState) error {
	d := state.result.Draft
	doc := state.result.Document
	issue, err := p.tracker.CreateIssue(ctx, jira.IssueInput{
		ProjectKey:  p.cfg.Jira.ProjectKey,
		IssueType:   d.IssueType,
		Summary:     d.Summary,
		Description: &doc,
		Labels:      d.Labels,
	})
	if err != nil {
		return err
	}
	state.result.Issue = &issue
	logger.Info("issue created",
		logging.IssueKey(issue.Key),
		logging.String("issue_url", issue.URL),
	)
	return nil
}

func (p *Pipeline) subtasks(ctx context.Context, logger *slog.Logger, state *runState) error {
	parent := state.result.Issue
	for _, sub := range state.result.Draft.Subtasks {
		doc := adf.Convert(sub.Description)
		child, err := p.tracker.CreateSubtask(ctx, parent.Key, jira.IssueInput{
			ProjectKey:  p.cfg.Jira.ProjectKey,
			IssueType:   p.cfg.Jira.SubtaskIssueType,
			Summary:     sub.Summary,
			Description: &doc,
			Labels:      state.result.Draft.Labels,
		})
		if err != nil {
			state.warn(logger, "subtask creation failed", fmt.Sprintf("subtask %q missing under %s", sub.Summary, parent.Key), err)
			continue
		}
		state.result.Subtasks = append(state.result.Subtasks, child)
		logger.Info("subtask created",
			logging.IssueKey(child.Key),
			logging.String("parent_key", parent.Key),
		)
	}
	return nil
}

func (p *Pipeline) link(ctx context.Context, logger *slog.Logger, state *runState) error {
	parent := state.req.Parent
	if parent == "" {
		return nil
	}
	key := state.result.Issue.Key
	if err := p.tracker.LinkIssues(ctx, p.cfg.Jira.LinkType, key, parent); err != nil {
		state.warn(logger, "issue link failed", fmt.Sprintf("%s is not linked to %s", key, parent), err)
		return nil
	}
	state.result.LinkedTo = parent
	logger.Info("issue linked",
		logging.IssueKey(key),
		logging.String("parent_key", parent),
		logging.String("link_type", p.cfg.Jira.LinkType),
	)
	return nil
}

func (p *Pipeline) attach(ctx context.Context, logger *slog.Logger, state *runState) error {
	excerpt := state.material.Log
	if excerpt == nil || strings.TrimSpace(excerpt.Text) == "" {
		return nil
	}
	key := state.result.Issue.Key
	if err := p.tracker.AddComment(ctx, key, LogComment(*excerpt, state.req.Origin)); err != nil {
		state.warn(logger, "log attachment failed", fmt.Sprintf("%s has no log excerpt comment", key), err)
		return nil
	}
	state.result.Commented = true
	logger.Info("log excerpt attached", logging.IssueKey(key))
	return nil
}

// LogComment builds the comment body holding a log excerpt.
func LogComment(excerpt source.LogExcerpt, origin string) adf.Document {
	header := fmt.Sprintf("Captured log: %d bytes, %d lines.", excerpt.TotalBytes, excerpt.TotalLines)
	if excerpt.Truncated {
		header = fmt.Sprintf("Captured log tail: last %d of %d bytes.", len(excerpt.Text), excerpt.TotalBytes)
	}
	blocks := []adf.Block{adf.Paragraph{Runs: adf.Scan(header)}}
	if origin = strings.TrimSpace(origin); origin != "" {
		blocks = append(blocks, adf.Paragraph{Runs: []adf.Run{{Text: "Source: "}, {Text: origin, Mark: adf.MarkCode}}})
	}
	if excerpt.FirstError != "" {
		blocks = append(blocks, adf.Paragraph{Runs: []adf.Run{
			{Text: fmt.Sprintf("First error (line %d): ", excerpt.FirstErrorLine), Mark: adf.MarkBold},
			{Text: excerpt.FirstError, Mark: adf.MarkCode},
		}})
	}
	blocks = append(blocks, adf.CodeBlock{Language: "text", Text: excerpt.Text})
	return adf.Assemble(blocks)
}

func (p *Pipeline) record(ctx context.Context, state *runState, runErr error) {
	if p.recorder == nil {
		return
	}
	_ = p.runStage(ctx, StageRecord, state, func(ctx context.Context, logger *slog.Logger, state *runState) error {
		entry := historyEntry(state, runErr)
		if err := p.recorder.Record(ctx, entry); err != nil {
			state.warn(logger, "history record failed", "run missing from history", err)
		}
		return nil
	})
}

func historyEntry(state *runState, runErr error) history.Entry {
	res := state.result
	entry := history.Entry{
		RunID:      state.id,
		Status:     history.StatusCreated,
		SourceKind: string(state.req.Kind),
		SourceRef:  sourceRef(state),
		IssueType:  res.Draft.IssueType,
		Summary:    res.Draft.Summary,
		ParentKey:  state.req.Parent,
		Excerpt:    res.Draft.Document().PlainText(),
		CreatedAt:  state.started,
		Duration:   res.Duration,
	}
	if res.Issue != nil {
		entry.IssueKey = res.Issue.Key
		entry.IssueURL = res.Issue.URL
	}
	for _, sub := range res.Subtasks {
		entry.Subtasks = append(entry.Subtasks, sub.Key)
	}
	if runErr != nil {
		entry.Status = history.StatusFailed
		entry.Error = runErr.Error()
	}
	return entry
}

func sourceRef(state *runState) string {
	switch {
	case state.material.Figma != nil:
		return state.material.Figma.URL
	case strings.TrimSpace(state.req.Origin) != "":
		return strings.TrimSpace(state.req.Origin)
	default:
		first, _, _ := strings.Cut(strings.TrimSpace(state.req.Value), "\n")
		if utf8.RuneCountInString(first) > 80 {
			first = string([]rune(first)[:79]) + "…"
		}
		return first
	}
}
