package jira

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"ticketsmith/internal/adf"
)

const maxSummaryLength = 255

var (
	projectKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]+$`)
	issueKeyPattern   = regexp.MustCompile(`^[A-Z][A-Z0-9_]+-[0-9]+$`)
)

// IssueInput describes an issue to create.
type IssueInput struct {
	ProjectKey  string
	IssueType   string
	Summary     string
	Description *adf.Document
	Labels      []string
	// Parent is the parent issue key for sub-tasks.
	Parent string
}

// Validate checks the fields Jira would otherwise reject with a 400.
func (in IssueInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ProjectKey, validation.Required, validation.Match(projectKeyPattern).Error("must be an upper-case Jira project key")),
		validation.Field(&in.IssueType, validation.Required),
		validation.Field(&in.Summary,
			validation.Required,
			validation.RuneLength(1, maxSummaryLength),
			validation.By(singleLine),
		),
		validation.Field(&in.Labels, validation.Each(validation.By(labelWithoutSpaces))),
		validation.Field(&in.Parent, validation.Match(issueKeyPattern).Error("must be an issue key such as OPS-12")),
	)
}

func singleLine(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, "\r\n") {
		return validation.NewError("jira.summary.single_line", "must be a single line")
	}
	if strings.TrimSpace(s) == "" {
		return validation.NewError("jira.summary.blank", "must not be blank")
	}
	return nil
}

func labelWithoutSpaces(value any) error {
	s, _ := value.(string)
	if s == "" || strings.ContainsAny(s, " \t") {
		return validation.NewError("jira.label.format", "labels must be non-empty and contain no spaces")
	}
	return nil
}

// ValidIssueKey reports whether key looks like a Jira issue key.
func ValidIssueKey(key string) bool {
	return issueKeyPattern.MatchString(key)
}

// Issue identifies a created issue.
type Issue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
	// URL is the browse link for humans, filled in by the client.
	URL string `json:"url,omitempty"`
}

// User is the subset of /myself the CLI displays.
type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	Active       bool   `json:"active"`
}

// APIError carries a non-2xx Jira response.
type APIError struct {
	Status      int
	Messages    []string
	FieldErrors map[string]string
	Body        string
}

func (e *APIError) Error() string {
	parts := append([]string(nil), e.Messages...)
	for _, field := range sortedKeys(e.FieldErrors) {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.FieldErrors[field]))
	}
	if len(parts) == 0 && e.Body != "" {
		parts = append(parts, e.Body)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("jira: http %d", e.Status)
	}
	return fmt.Sprintf("jira: http %d: %s", e.Status, strings.Join(parts, "; "))
}

type issueFields struct {
	Project     keyRef        `json:"project"`
	IssueType   nameRef       `json:"issuetype"`
	Summary     string        `json:"summary"`
	Description *adf.Document `json:"description,omitempty"`
	Labels      []string      `json:"labels,omitempty"`
	Parent      *keyRef       `json:"parent,omitempty"`
}

type createIssueRequest struct {
	Fields issueFields `json:"fields"`
}

type keyRef struct {
	Key string `json:"key"`
}

type nameRef struct {
	Name string `json:"name"`
}

type issueLinkRequest struct {
	Type         nameRef `json:"type"`
	InwardIssue  keyRef  `json:"inwardIssue"`
	OutwardIssue keyRef  `json:"outwardIssue"`
}

type commentRequest struct {
	Body adf.Document `json:"body"`
}

type errorPayload struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}
