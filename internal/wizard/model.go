package wizard

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"ticketsmith/internal/preview"
	"ticketsmith/internal/source"
	"ticketsmith/internal/workflow"
)

// Previewer drafts and converts a request without touching Jira.
type Previewer interface {
	Preview(ctx context.Context, req source.Request) (workflow.Result, error)
}

// Step identifies which screen the wizard is showing.
type Step int

const (
	StepKind Step = iota
	StepValue
	StepType
	StepDrafting
	StepPreview
	StepFailed
	StepDone
)

// Outcome is what the wizard hands back once the program exits.
type Outcome struct {
	Request   source.Request
	Result    workflow.Result
	Confirmed bool
}

// Options seeds the wizard.
type Options struct {
	// DefaultType is offered when the issue type prompt is left empty.
	DefaultType string
	Parent      string
	Labels      []string
	Color       bool
	Theme       *preview.Theme
}

type draftedMsg struct {
	result workflow.Result
	err    error
}

const (
	defaultWidth  = 80
	defaultHeight = 24
	// Rows reserved for the title, the status line and the key help.
	chromeRows = 6
)

// Model is the bubbletea model driving the wizard.
type Model struct {
	ctx       context.Context
	previewer Previewer
	opts      Options
	theme     preview.Theme
	styles    styles

	step     Step
	kinds    []source.Kind
	cursor   int
	input    textinput.Model
	area     textarea.Model
	typeIn   textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	width   int
	height  int
	notice  string
	outcome Outcome
	err     error
}

// New builds a wizard model. ctx bounds the drafting call.
func New(ctx context.Context, previewer Previewer, opts Options) Model {
	theme := preview.DefaultTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	if strings.TrimSpace(opts.DefaultType) == "" {
		opts.DefaultType = "Task"
	}

	input := textinput.New()
	input.Placeholder = "https://www.figma.com/design/..."
	input.CharLimit = 2048

	area := textarea.New()
	area.Placeholder = "Paste text here"
	area.ShowLineNumbers = false
	area.CharLimit = 0

	typeIn := textinput.New()
	typeIn.Placeholder = opts.DefaultType
	typeIn.CharLimit = 64

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:       ctx,
		previewer: previewer,
		opts:      opts,
		theme:     theme,
		styles:    newStyles(theme, opts.Color),
		kinds:     source.Kinds(),
		input:     input,
		area:      area,
		typeIn:    typeIn,
		spinner:   spin,
		viewport:  viewport.New(defaultWidth, defaultHeight-chromeRows),
		width:     defaultWidth,
		height:    defaultHeight,
	}
	m.resize(defaultWidth, defaultHeight)
	return m
}

// Step reports the current screen.
func (m Model) Step() Step { return m.step }

// Outcome reports the wizard result. Confirmed is false when the user
// cancelled.
func (m Model) Outcome() Outcome { return m.outcome }

// Err reports the last drafting failure, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		if m.step == StepPreview {
			m.viewport.SetContent(m.renderDraft())
		}
		return m, nil
	case draftedMsg:
		return m.handleDrafted(msg)
	case spinner.TickMsg:
		if m.step != StepDrafting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.cancel()
		}
		switch m.step {
		case StepKind:
			return m.updateKind(msg)
		case StepValue:
			return m.updateValue(msg)
		case StepType:
			return m.updateType(msg)
		case StepDrafting:
			if msg.Type == tea.KeyEsc {
				return m.cancel()
			}
			return m, nil
		case StepPreview:
			return m.updatePreview(msg)
		case StepFailed:
			return m.updateFailed(msg)
		}
	}
	return m, nil
}

func (m Model) updateKind(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return m.cancel()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.kinds)-1 {
			m.cursor++
		}
	case "enter":
		m.outcome.Request.Kind = m.kinds[m.cursor]
		m.notice = ""
		m.step = StepValue
		if m.usesArea() {
			m.area.Placeholder = placeholderFor(m.outcome.Request.Kind)
			return m, m.area.Focus()
		}
		return m, m.input.Focus()
	}
	return m, nil
}

func (m Model) updateValue(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	submit := msg.Type == tea.KeyEnter
	if m.usesArea() {
		submit = msg.Type == tea.KeyCtrlD
	}
	switch {
	case msg.Type == tea.KeyEsc:
		m.input.Blur()
		m.area.Blur()
		m.notice = ""
		m.step = StepKind
		return m, nil
	case submit:
		req := m.buildRequest()
		if err := req.Validate(); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.notice = ""
		m.input.Blur()
		m.area.Blur()
		m.step = StepType
		return m, m.typeIn.Focus()
	}

	var cmd tea.Cmd
	if m.usesArea() {
		m.area, cmd = m.area.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) updateType(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.typeIn.Blur()
		m.step = StepValue
		if m.usesArea() {
			return m, m.area.Focus()
		}
		return m, m.input.Focus()
	case tea.KeyEnter:
		m.typeIn.Blur()
		m.outcome.Request = m.buildRequest()
		return m.startDraft()
	}
	var cmd tea.Cmd
	m.typeIn, cmd = m.typeIn.Update(msg)
	return m, cmd
}

func (m Model) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.outcome.Confirmed = true
		m.step = StepDone
		return m, tea.Quit
	case "n", "N", "esc", "q":
		return m.cancel()
	case "r":
		return m.startDraft()
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateFailed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		return m.startDraft()
	case "e":
		m.step = StepValue
		m.err = nil
		if m.usesArea() {
			return m, m.area.Focus()
		}
		return m, m.input.Focus()
	case "esc", "q", "n":
		return m.cancel()
	}
	return m, nil
}

func (m Model) startDraft() (tea.Model, tea.Cmd) {
	m.step = StepDrafting
	m.err = nil
	m.notice = ""
	return m, tea.Batch(m.spinner.Tick, m.draftCmd(m.outcome.Request))
}

func (m Model) draftCmd(req source.Request) tea.Cmd {
	ctx := m.ctx
	previewer := m.previewer
	return func() tea.Msg {
		if previewer == nil {
			return draftedMsg{err: errNoPreviewer}
		}
		result, err := previewer.Preview(ctx, req)
		return draftedMsg{result: result, err: err}
	}
}

func (m Model) handleDrafted(msg draftedMsg) (tea.Model, tea.Cmd) {
	if m.step != StepDrafting {
		return m, nil
	}
	if msg.err != nil {
		m.err = msg.err
		m.step = StepFailed
		return m, nil
	}
	m.outcome.Result = msg.result
	m.step = StepPreview
	m.viewport.SetContent(m.renderDraft())
	m.viewport.GotoTop()
	return m, nil
}

func (m Model) cancel() (tea.Model, tea.Cmd) {
	m.outcome.Confirmed = false
	m.step = StepDone
	return m, tea.Quit
}

func (m Model) usesArea() bool {
	return m.outcome.Request.Kind != source.KindFigma
}

func (m Model) buildRequest() source.Request {
	req := m.outcome.Request
	if m.usesArea() {
		req.Value = m.area.Value()
	} else {
		req.Value = strings.TrimSpace(m.input.Value())
	}
	if req.Kind == source.KindLog && req.Origin == "" {
		req.Origin = "wizard"
	}
	req.IssueType = strings.TrimSpace(m.typeIn.Value())
	if req.IssueType == "" {
		req.IssueType = m.opts.DefaultType
	}
	req.Parent = strings.ToUpper(strings.TrimSpace(m.opts.Parent))
	req.Labels = m.opts.Labels
	return req
}

func (m *Model) resize(width, height int) {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	m.width = width
	m.height = height
	m.input.Width = max(width-4, 10)
	m.typeIn.Width = max(width-4, 10)
	m.area.SetWidth(max(width-2, 10))
	m.area.SetHeight(max(height-chromeRows-2, 3))
	m.viewport.Width = width
	m.viewport.Height = max(height-chromeRows, 3)
}

func placeholderFor(kind source.Kind) string {
	if kind == source.KindLog {
		return "Paste the failing log output"
	}
	return "Describe the work"
}
