// Package draft turns agent output into a ticket draft. Structured JSON
// answers are decoded directly; anything else is treated as a markdown body
// and a summary is derived from it.
package draft

import (
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ticketsmith/internal/adf"
	"ticketsmith/internal/services/llm"
)

const (
	// MaxDerivedSummaryRunes bounds summaries taken from free text.
	MaxDerivedSummaryRunes = 120
	// MaxSummaryRunes is the Jira summary limit.
	MaxSummaryRunes = 255
	// DefaultIssueType is used when neither the agent nor the caller picks one.
	DefaultIssueType = "Task"
	ellipsis         = "…"
)

// Subtask is a child work item proposed by the agent.
type Subtask struct {
	Summary     string `json:"summary" yaml:"summary"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Draft is the ticket content before conversion to ADF.
type Draft struct {
	Summary     string    `json:"summary"`
	IssueType   string    `json:"issue_type"`
	Description string    `json:"description"`
	Subtasks    []Subtask `json:"subtasks,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
	// Structured is true when the agent answered with the JSON object.
	Structured bool `json:"structured"`
}

// Parse decodes raw agent output. It never fails: unparseable output becomes
// the description of a draft whose summary is derived from the text.
func Parse(raw, fallbackType string) Draft {
	var decoded Draft
	if err := llm.DecodeLLMJSON(raw, &decoded); err == nil && (decoded.Summary != "" || decoded.Description != "") {
		decoded.Structured = true
	} else {
		decoded = Draft{Description: strings.TrimSpace(raw)}
	}

	decoded.Description = strings.TrimSpace(decoded.Description)
	decoded.Summary = singleLine(decoded.Summary)
	if decoded.Summary == "" {
		decoded.Summary = Summarize(decoded.Description)
	}
	decoded.Summary = clip(decoded.Summary, MaxSummaryRunes)

	decoded.IssueType = CanonicalIssueType(decoded.IssueType)
	if decoded.IssueType == "" {
		decoded.IssueType = CanonicalIssueType(fallbackType)
	}
	if decoded.IssueType == "" {
		decoded.IssueType = DefaultIssueType
	}

	subtasks := decoded.Subtasks[:0]
	for _, sub := range decoded.Subtasks {
		sub.Description = strings.TrimSpace(sub.Description)
		sub.Summary = singleLine(sub.Summary)
		if sub.Summary == "" {
			sub.Summary = Summarize(sub.Description)
		}
		if sub.Summary == "" {
			continue
		}
		sub.Summary = clip(sub.Summary, MaxSummaryRunes)
		subtasks = append(subtasks, sub)
	}
	decoded.Subtasks = subtasks
	decoded.Labels = NormalizeLabels(decoded.Labels)
	return decoded
}

// Override applies caller-supplied values on top of the drafted ones.
func (d *Draft) Override(summary, issueType string, labels []string) {
	if summary = singleLine(summary); summary != "" {
		d.Summary = clip(summary, MaxSummaryRunes)
	}
	if issueType = CanonicalIssueType(issueType); issueType != "" {
		d.IssueType = issueType
	}
	d.Labels = NormalizeLabels(append(slices.Clone(d.Labels), labels...))
}

// Document converts the description to ADF.
func (d Draft) Document() adf.Document {
	return adf.Convert(d.Description)
}

// Summarize derives a one-line summary from markdown: the first heading when
// there is one, otherwise the first non-empty line, with inline markers
// stripped and the result clipped to MaxDerivedSummaryRunes.
func Summarize(text string) string {
	for _, block := range adf.Segment(text) {
		if heading, ok := block.(adf.Heading); ok {
			if title := singleLine(adf.RunsText(heading.Runs)); title != "" {
				return clip(title, MaxDerivedSummaryRunes)
			}
		}
	}
	inFence := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if trimmed == "" || inFence {
			continue
		}
		trimmed = stripListMarker(trimmed)
		if plain := singleLine(adf.RunsText(adf.Scan(trimmed))); plain != "" {
			return clip(plain, MaxDerivedSummaryRunes)
		}
	}
	return ""
}

func stripListMarker(line string) string {
	for _, marker := range []string{"- ", "* "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):])
		}
	}
	digits := 0
	for digits < len(line) && line[digits] >= '0' && line[digits] <= '9' {
		digits++
	}
	if digits > 0 && strings.HasPrefix(line[digits:], ". ") {
		return strings.TrimSpace(line[digits+2:])
	}
	return line
}

// CanonicalIssueType title-cases an issue type name ("bug" becomes "Bug").
func CanonicalIssueType(value string) string {
	value = singleLine(value)
	if value == "" {
		return ""
	}
	return cases.Title(language.Und).String(value)
}

// NormalizeLabels lowercases labels, replaces inner whitespace with dashes,
// and drops blanks and duplicates while keeping order.
func NormalizeLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	lower := cases.Lower(language.Und)
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.Join(strings.Fields(lower.String(label)), "-")
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func singleLine(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func clip(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return strings.TrimSpace(string(runes[:limit-1])) + ellipsis
}
