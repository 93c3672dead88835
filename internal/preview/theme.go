package preview

import "github.com/charmbracelet/lipgloss"

// Theme holds the ANSI 256 colours used by the renderer.
type Theme struct {
	Heading    lipgloss.Color
	Emphasis   lipgloss.Color
	InlineCode lipgloss.Color
	CodeGutter lipgloss.Color
	Bullet     lipgloss.Color
	FaintText  lipgloss.Color
}

// DefaultTheme returns the palette used by the CLI and the wizard.
func DefaultTheme() Theme {
	return Theme{
		Heading:    lipgloss.Color("39"),
		Emphasis:   lipgloss.Color("252"),
		InlineCode: lipgloss.Color("214"),
		CodeGutter: lipgloss.Color("240"),
		Bullet:     lipgloss.Color("111"),
		FaintText:  lipgloss.Color("245"),
	}
}
