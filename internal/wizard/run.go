package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

var errNoPreviewer = errors.New("no drafting backend configured")

// RunOption adjusts how the program is attached to the terminal.
type RunOption func(*[]tea.ProgramOption)

// WithIO overrides the program's input and output streams.
func WithIO(in io.Reader, out io.Writer) RunOption {
	return func(opts *[]tea.ProgramOption) {
		*opts = append(*opts, tea.WithInput(in), tea.WithOutput(out))
	}
}

// WithAltScreen runs the wizard in the terminal's alternate screen.
func WithAltScreen() RunOption {
	return func(opts *[]tea.ProgramOption) {
		*opts = append(*opts, tea.WithAltScreen())
	}
}

// Run drives the wizard until the user confirms or cancels.
func Run(ctx context.Context, previewer Previewer, opts Options, runOpts ...RunOption) (Outcome, error) {
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	for _, opt := range runOpts {
		opt(&programOpts)
	}
	final, err := tea.NewProgram(New(ctx, previewer, opts), programOpts...).Run()
	if err != nil {
		return Outcome{}, fmt.Errorf("wizard: %w", err)
	}
	model, ok := final.(Model)
	if !ok {
		return Outcome{}, fmt.Errorf("wizard: unexpected model %T", final)
	}
	return model.Outcome(), nil
}
