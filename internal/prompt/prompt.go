// Package prompt builds the prompts sent to the drafting agent.
package prompt

import (
	"fmt"
	"strings"

	"ticketsmith/internal/source"
)

// SystemPrompt instructs the agent on the JSON shape ticketsmith expects.
const SystemPrompt = `You are an engineering lead who writes Jira work items.

Respond with a single JSON object and nothing else. No prose, no code fences.

Required JSON format:
{
  "summary": "Short imperative title, at most 120 characters",
  "issue_type": "Task | Bug | Story",
  "description": "Body written in informal markdown",
  "subtasks": [
    {"summary": "Sub-task title", "description": "Sub-task body in informal markdown"}
  ],
  "labels": ["lowercase-label"]
}

Description formatting rules:
- Use only these forms: "# " headings, "- " or "* " bullet lists, "1. " numbered lists,
  fenced code blocks with triple backticks, **bold**, *italic*, and ` + "`inline code`" + `.
- Do not use tables, links, images, blockquotes, or nested lists.
- Separate paragraphs with a blank line.

Content rules:
- Describe the problem or goal, then acceptance criteria as a bullet list.
- Only add subtasks when the work clearly splits into independent pieces.
- Labels must not contain spaces.`

// Context carries the parsed source material for a request.
type Context struct {
	Figma *source.FigmaRef
	Log   *source.LogExcerpt
}

// Build returns the user prompt for the request.
func Build(req source.Request, ctx Context) string {
	var b strings.Builder
	switch req.Kind {
	case source.KindFigma:
		b.WriteString("Draft a Jira work item for implementing the design below.\n\n")
		if ctx.Figma != nil {
			b.WriteString(ctx.Figma.Describe())
		} else {
			fmt.Fprintf(&b, "Figma link: %s\n", strings.TrimSpace(req.Value))
		}
		b.WriteString("\nInclude a checklist of the screens or components that need work.\n")
	case source.KindLog:
		b.WriteString("Draft a Jira bug report for the failure captured in this log.\n\n")
		if ctx.Log != nil {
			b.WriteString(ctx.Log.Describe())
			b.WriteString("\n```\n")
			b.WriteString(ctx.Log.Text)
			b.WriteString("\n```\n")
		} else {
			b.WriteString("```\n")
			b.WriteString(strings.TrimRight(req.Value, "\n"))
			b.WriteString("\n```\n")
		}
		b.WriteString("\nExplain the likely cause and quote the key error line in a code block.\n")
	default:
		b.WriteString("Draft a Jira work item from this request:\n\n")
		b.WriteString(strings.TrimSpace(req.Value))
		b.WriteString("\n")
	}

	var hints []string
	if req.IssueType != "" {
		hints = append(hints, fmt.Sprintf("Use issue_type %q.", req.IssueType))
	}
	if req.Summary != "" {
		hints = append(hints, fmt.Sprintf("Use this summary verbatim: %q.", req.Summary))
	}
	if len(req.Labels) > 0 {
		hints = append(hints, fmt.Sprintf("Include these labels: %s.", strings.Join(req.Labels, ", ")))
	}
	if req.Parent != "" {
		hints = append(hints, fmt.Sprintf("The item will be linked to %s.", req.Parent))
	}
	if len(hints) > 0 {
		b.WriteString("\nConstraints:\n")
		for _, hint := range hints {
			b.WriteString("- ")
			b.WriteString(hint)
			b.WriteString("\n")
		}
	}
	return b.String()
}
