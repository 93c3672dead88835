package wizard

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"ticketsmith/internal/preview"
	"ticketsmith/internal/source"
)

type styles struct {
	title    lipgloss.Style
	selected lipgloss.Style
	faint    lipgloss.Style
	errText  lipgloss.Style
	label    lipgloss.Style
}

func newStyles(theme preview.Theme, color bool) styles {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI256
	}
	r := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(profile))
	r.SetColorProfile(profile)
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(theme.Heading),
		selected: r.NewStyle().Bold(true).Foreground(theme.Bullet),
		faint:    r.NewStyle().Foreground(theme.FaintText),
		errText:  r.NewStyle().Foreground(lipgloss.Color("203")),
		label:    r.NewStyle().Bold(true).Foreground(theme.Emphasis),
	}
}

var kindLabels = map[source.Kind]string{
	source.KindFigma: "Figma design link",
	source.KindLog:   "Error log",
	source.KindText:  "Free-form description",
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("ticketsmith: new ticket"))
	b.WriteString("\n\n")

	switch m.step {
	case StepKind:
		b.WriteString("What is the ticket based on?\n\n")
		for i, kind := range m.kinds {
			label := kindLabels[kind]
			if label == "" {
				label = string(kind)
			}
			if i == m.cursor {
				b.WriteString(m.styles.selected.Render("> " + label))
			} else {
				b.WriteString("  " + label)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n" + m.styles.faint.Render("up/down select • enter continue • esc cancel"))
	case StepValue:
		b.WriteString(m.styles.label.Render(kindLabels[m.outcome.Request.Kind]) + "\n\n")
		if m.usesArea() {
			b.WriteString(m.area.View())
			b.WriteString("\n\n" + m.styles.faint.Render("ctrl+d continue • esc back"))
		} else {
			b.WriteString(m.input.View())
			b.WriteString("\n\n" + m.styles.faint.Render("enter continue • esc back"))
		}
	case StepType:
		b.WriteString(m.styles.label.Render("Issue type") + "\n\n")
		b.WriteString(m.typeIn.View())
		b.WriteString("\n\n" + m.styles.faint.Render(fmt.Sprintf("enter draft (default %s) • esc back", m.opts.DefaultType)))
	case StepDrafting:
		b.WriteString(m.spinner.View() + " Drafting ticket...")
		b.WriteString("\n\n" + m.styles.faint.Render("esc cancel"))
	case StepPreview:
		b.WriteString(m.viewport.View())
		b.WriteString("\n\n" + m.styles.faint.Render("y create • n cancel • r redraft • up/down scroll"))
	case StepFailed:
		b.WriteString(m.styles.errText.Render("Drafting failed: " + errorText(m.err)))
		b.WriteString("\n\n" + m.styles.faint.Render("r retry • e edit input • esc cancel"))
	case StepDone:
		return ""
	}

	if m.notice != "" {
		b.WriteString("\n\n" + m.styles.errText.Render(m.notice))
	}
	return b.String()
}

// renderDraft lays out the drafted summary, type and description for the
// preview viewport.
func (m Model) renderDraft() string {
	d := m.outcome.Result.Draft
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", m.styles.label.Render("Summary:"), d.Summary)
	fmt.Fprintf(&b, "%s %s\n", m.styles.label.Render("Type:"), d.IssueType)
	if parent := m.outcome.Request.Parent; parent != "" {
		fmt.Fprintf(&b, "%s %s\n", m.styles.label.Render("Parent:"), parent)
	}
	if len(d.Labels) > 0 {
		fmt.Fprintf(&b, "%s %s\n", m.styles.label.Render("Labels:"), strings.Join(d.Labels, ", "))
	}
	b.WriteString("\n")
	b.WriteString(preview.Render(d.Description, preview.Options{
		Width: max(m.viewport.Width-2, 20),
		Color: m.opts.Color,
		Theme: &m.theme,
	}))
	if len(d.Subtasks) > 0 {
		b.WriteString("\n\n" + m.styles.label.Render("Subtasks:") + "\n")
		for _, sub := range d.Subtasks {
			b.WriteString("  - " + sub.Summary + "\n")
		}
	}
	for _, warning := range m.outcome.Result.Warnings {
		b.WriteString("\n" + m.styles.errText.Render("warning: "+warning))
	}
	return strings.TrimRight(b.String(), "\n")
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
