package preview

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"ticketsmith/internal/adf"
)

const (
	defaultWidth     = 80
	minWidth         = 20
	defaultCodeStyle = "monokai"
	wrapBreakpoints  = " ,.;-+|"
	codeIndent       = "    "
)

// Options controls rendering.
type Options struct {
	// Width is the wrap column. Zero means DetectWidth.
	Width int
	// Color enables ANSI styling; when false the output is plain text.
	Color bool
	// CodeStyle names the chroma style for fenced code.
	CodeStyle string
	Theme     *Theme
}

// DetectWidth reports the terminal width of stdout, or 80 when stdout is not
// a terminal.
func DetectWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

// Render converts text to terminal output. Blocks are separated by a blank
// line; the result carries no trailing newline.
func Render(text string, opts Options) string {
	r := newRenderer(os.Stdout, opts)
	blocks := adf.Segment(text)
	parts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if rendered := r.block(block); rendered != "" {
			parts = append(parts, rendered)
		}
	}
	return strings.Join(parts, "\n\n")
}

type renderer struct {
	lip       *lipgloss.Renderer
	theme     Theme
	width     int
	color     bool
	codeStyle string
}

func newRenderer(w io.Writer, opts Options) *renderer {
	profile := termenv.Ascii
	if opts.Color {
		profile = termenv.ANSI256
	}
	lip := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	lip.SetColorProfile(profile)

	width := opts.Width
	if width <= 0 {
		width = DetectWidth()
	}
	if width < minWidth {
		width = minWidth
	}
	theme := DefaultTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	style := strings.TrimSpace(opts.CodeStyle)
	if style == "" {
		style = defaultCodeStyle
	}
	return &renderer{lip: lip, theme: theme, width: width, color: opts.Color, codeStyle: style}
}

func (r *renderer) block(block adf.Block) string {
	switch b := block.(type) {
	case adf.Paragraph:
		return ansi.Wrap(r.inline(b.Runs), r.width, wrapBreakpoints)
	case adf.Heading:
		style := r.lip.NewStyle().Bold(true).Foreground(r.theme.Heading)
		if b.Level == 1 {
			style = style.Underline(true)
		}
		return ansi.Wrap(r.styled(b.Runs, &style), r.width, wrapBreakpoints)
	case adf.CodeBlock:
		return r.code(b)
	case adf.BulletList:
		bullet := r.lip.NewStyle().Foreground(r.theme.Bullet).Render("•")
		return r.list(b.Items, func(int) string { return bullet })
	case adf.OrderedList:
		style := r.lip.NewStyle().Foreground(r.theme.Bullet)
		return r.list(b.Items, func(i int) string { return style.Render(strconv.Itoa(i+1) + ".") })
	default:
		return ""
	}
}

func (r *renderer) inline(runs []adf.Run) string {
	return r.styled(runs, nil)
}

// styled renders runs on top of base, so marks inside a heading keep the
// heading colour. With a nil base unmarked runs stay raw.
func (r *renderer) styled(runs []adf.Run, base *lipgloss.Style) string {
	var b strings.Builder
	for _, run := range runs {
		style := r.lip.NewStyle()
		if base != nil {
			style = *base
		}
		switch run.Mark {
		case adf.MarkBold:
			style = style.Bold(true)
		case adf.MarkItalic:
			style = style.Italic(true)
		case adf.MarkCode:
			style = style.Foreground(r.theme.InlineCode)
		default:
			if base == nil {
				b.WriteString(run.Text)
				continue
			}
		}
		b.WriteString(style.Render(run.Text))
	}
	return b.String()
}

func (r *renderer) list(items []adf.ListItem, marker func(int) string) string {
	lines := make([]string, 0, len(items))
	for i, item := range items {
		prefix := "  " + marker(i) + " "
		indent := strings.Repeat(" ", ansi.StringWidth(prefix))
		wrapped := ansi.Wrap(r.inline(item.Runs), r.width-len(indent), wrapBreakpoints)
		for j, line := range strings.Split(wrapped, "\n") {
			if j == 0 {
				lines = append(lines, prefix+line)
				continue
			}
			lines = append(lines, indent+line)
		}
	}
	return strings.Join(lines, "\n")
}

// code indents a code block. In colour mode the indent carries a gutter bar
// and the body is highlighted.
func (r *renderer) code(block adf.CodeBlock) string {
	prefix := codeIndent
	body := block.Text
	if r.color {
		prefix = "  " + r.lip.NewStyle().Foreground(r.theme.CodeGutter).Render("│") + " "
		body = r.highlight(block.Text, block.Language)
	}
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// highlight returns chroma-highlighted code. Unknown or missing languages,
// and highlighting failures, fall back to faint plain text.
func (r *renderer) highlight(code, language string) string {
	faint := r.lip.NewStyle().Foreground(r.theme.FaintText)
	if lexers.Get(language) == nil {
		return faintLines(faint, code)
	}
	var buf strings.Builder
	if err := quick.Highlight(&buf, code, language, "terminal256", r.codeStyle); err != nil {
		return faintLines(faint, code)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func faintLines(style lipgloss.Style, code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		lines[i] = style.Render(line)
	}
	return strings.Join(lines, "\n")
}
