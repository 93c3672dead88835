package source

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"ticketsmith/internal/services/jira"
)

// Kind names the origin of a ticket request.
type Kind string

const (
	KindFigma Kind = "figma"
	KindLog   Kind = "log"
	KindText  Kind = "text"
)

// Kinds lists the supported source kinds in display order.
func Kinds() []Kind {
	return []Kind{KindFigma, KindLog, KindText}
}

// ParseKind resolves a user-supplied kind name.
func ParseKind(value string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Kinds() {
		if kind == known {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown source kind %q (want figma, log, or text)", value)
}

// Request is a ticket request as received from the CLI, the wizard, or the
// HTTP API.
type Request struct {
	Kind Kind `json:"kind"`
	// Value is the Figma URL, the log text, or the free-form description.
	Value     string   `json:"value"`
	IssueType string   `json:"issue_type,omitempty"`
	Parent    string   `json:"parent,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	// Summary overrides the drafted summary when set.
	Summary string `json:"summary,omitempty"`
	// Origin records where a log came from (a file path or "stdin").
	Origin string `json:"origin,omitempty"`
}

// Validate checks the request fields.
func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Kind, validation.Required, validation.In(KindFigma, KindLog, KindText)),
		validation.Field(&r.Value,
			validation.Required,
			validation.By(func(value any) error {
				if strings.TrimSpace(value.(string)) == "" {
					return validation.NewError("source.value.blank", "must not be blank")
				}
				if r.Kind == KindFigma {
					if _, err := ParseFigma(value.(string)); err != nil {
						return validation.NewError("source.value.figma", err.Error())
					}
				}
				return nil
			}),
		),
		validation.Field(&r.Parent, validation.By(func(value any) error {
			if key := value.(string); key != "" && !jira.ValidIssueKey(key) {
				return validation.NewError("source.parent.key", "must be an issue key such as OPS-12")
			}
			return nil
		})),
		validation.Field(&r.Labels, validation.Each(validation.By(func(value any) error {
			if label := value.(string); label == "" || strings.ContainsAny(label, " \t") {
				return validation.NewError("source.label.format", "labels must be non-empty and contain no spaces")
			}
			return nil
		}))),
		validation.Field(&r.Summary, validation.RuneLength(0, 255)),
	)
}
