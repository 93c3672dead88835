// Package preview renders informal markdown as styled terminal text.
//
// It shares block and inline matching with package adf by segmenting the raw
// text with adf.Segment, so what the terminal shows is exactly what Jira will
// receive. Styling uses lipgloss; fenced code is highlighted with chroma.
package preview
