package history

import "time"

// Status describes how a run ended.
type Status string

const (
	StatusCreated Status = "created"
	StatusFailed  Status = "failed"
)

// Entry is one recorded run.
type Entry struct {
	ID         int64         `json:"id"`
	RunID      string        `json:"run_id"`
	Status     Status        `json:"status"`
	SourceKind string        `json:"source_kind"`
	SourceRef  string        `json:"source_ref,omitempty"`
	IssueKey   string        `json:"issue_key,omitempty"`
	IssueURL   string        `json:"issue_url,omitempty"`
	IssueType  string        `json:"issue_type,omitempty"`
	Summary    string        `json:"summary,omitempty"`
	Subtasks   []string      `json:"subtasks,omitempty"`
	ParentKey  string        `json:"parent_key,omitempty"`
	Excerpt    string        `json:"excerpt,omitempty"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	Duration   time.Duration `json:"duration"`
}
