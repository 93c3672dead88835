package workflow

import (
	"context"
	"time"

	"ticketsmith/internal/adf"
	"ticketsmith/internal/draft"
	"ticketsmith/internal/history"
	"ticketsmith/internal/prompt"
	"ticketsmith/internal/services/jira"
	"ticketsmith/internal/source"
)

// Stage names, in execution order.
const (
	StagePrepare  = "prepare"
	StageDraft    = "draft"
	StageConvert  = "convert"
	StageCreate   = "create"
	StageSubtasks = "subtasks"
	StageLink     = "link"
	StageAttach   = "attach"
	StageRecord   = "record"
)

// Drafter produces ticket content from a system and a user prompt. Both the
// agent CLI wrapper and the chat-completion client satisfy it.
type Drafter interface {
	Draft(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Tracker is the issue tracker surface a run needs.
type Tracker interface {
	CreateIssue(ctx context.Context, in jira.IssueInput) (jira.Issue, error)
	CreateSubtask(ctx context.Context, parentKey string, in jira.IssueInput) (jira.Issue, error)
	LinkIssues(ctx context.Context, linkType, inwardKey, outwardKey string) error
	AddComment(ctx context.Context, key string, doc adf.Document) error
}

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) error
}

// Result describes the outcome of a run.
type Result struct {
	RunID    string         `json:"run_id"`
	Request  source.Request `json:"request"`
	Draft    draft.Draft    `json:"draft"`
	Document adf.Document   `json:"document"`
	Issue    *jira.Issue    `json:"issue,omitempty"`
	Subtasks []jira.Issue   `json:"subtasks,omitempty"`
	// LinkedTo is the parent key the issue was linked to.
	LinkedTo  string `json:"linked_to,omitempty"`
	Commented bool   `json:"commented,omitempty"`
	DryRun    bool   `json:"dry_run"`
	// Warnings lists follow-up steps that failed after the issue was created.
	Warnings []string      `json:"warnings,omitempty"`
	Duration time.Duration `json:"duration"`
}

// runState carries per-run material between stages.
type runState struct {
	id       string
	req      source.Request
	started  time.Time
	material prompt.Context
	result   Result
}
