package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"ticketsmith/internal/draft"
	"ticketsmith/internal/services"
	"ticketsmith/internal/services/jira"
)

// Defaults apply to every ticket that leaves the field empty.
type Defaults struct {
	Type   string   `yaml:"type"`
	Parent string   `yaml:"parent"`
	Labels []string `yaml:"labels"`
}

// Ticket is one manifest entry.
type Ticket struct {
	Summary     string          `yaml:"summary"`
	Type        string          `yaml:"type"`
	Description string          `yaml:"description"`
	Parent      string          `yaml:"parent"`
	Labels      []string        `yaml:"labels"`
	Subtasks    []draft.Subtask `yaml:"subtasks"`
}

// Manifest is a parsed batch file.
type Manifest struct {
	Defaults Defaults `yaml:"defaults"`
	Tickets  []Ticket `yaml:"tickets"`
	// Path is the file the manifest was loaded from, if any.
	Path string `yaml:"-"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "manifest", "read", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	m.Path = path
	return m, nil
}

// Parse decodes and validates a manifest. Unknown keys are rejected so typos
// such as "sumary" fail loudly.
func Parse(r io.Reader) (*Manifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var m Manifest
	if err := decoder.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, services.Wrap(services.ErrValidation, "manifest", "parse", "manifest is empty", nil)
		}
		return nil, services.Wrap(services.ErrValidation, "manifest", "parse", "invalid yaml", err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "manifest", "validate", "", err)
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	for i := range m.Tickets {
		ticket := &m.Tickets[i]
		ticket.Summary = strings.TrimSpace(ticket.Summary)
		ticket.Parent = strings.ToUpper(strings.TrimSpace(ticket.Parent))
		if strings.TrimSpace(ticket.Type) == "" {
			ticket.Type = m.Defaults.Type
		}
		if ticket.Parent == "" {
			ticket.Parent = strings.ToUpper(strings.TrimSpace(m.Defaults.Parent))
		}
		ticket.Labels = draft.NormalizeLabels(append(append([]string(nil), m.Defaults.Labels...), ticket.Labels...))
	}
}

// Validate checks every ticket.
func (m Manifest) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Tickets, validation.Required.Error("must list at least one ticket")),
	)
}

// Validate checks a single ticket.
func (t Ticket) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Summary, validation.Required, validation.RuneLength(1, draft.MaxSummaryRunes), validation.By(singleLine)),
		validation.Field(&t.Parent, validation.By(issueKey)),
		validation.Field(&t.Subtasks, validation.Each(validation.By(func(value any) error {
			sub, _ := value.(draft.Subtask)
			if strings.TrimSpace(sub.Summary) == "" {
				return validation.NewError("manifest.subtask.summary", "subtask summary is required")
			}
			return singleLine(sub.Summary)
		}))),
	)
}

// Draft converts the ticket to a draft ready for submission.
func (t Ticket) Draft(fallbackType string) draft.Draft {
	d := draft.Draft{
		Summary:     t.Summary,
		IssueType:   draft.CanonicalIssueType(t.Type),
		Description: strings.TrimSpace(t.Description),
		Labels:      t.Labels,
		Structured:  true,
	}
	if d.IssueType == "" {
		d.IssueType = draft.CanonicalIssueType(fallbackType)
	}
	if d.IssueType == "" {
		d.IssueType = draft.DefaultIssueType
	}
	for _, sub := range t.Subtasks {
		d.Subtasks = append(d.Subtasks, draft.Subtask{
			Summary:     strings.TrimSpace(sub.Summary),
			Description: strings.TrimSpace(sub.Description),
		})
	}
	return d
}

func singleLine(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, "\r\n") {
		return validation.NewError("manifest.summary.single_line", "must be a single line")
	}
	return nil
}

func issueKey(value any) error {
	s, _ := value.(string)
	if s != "" && !jira.ValidIssueKey(s) {
		return validation.NewError("manifest.parent.key", "must be an issue key such as OPS-12")
	}
	return nil
}
