package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"ticketsmith/internal/preview"
	"ticketsmith/internal/workflow"
)

const (
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiBold   = "\x1b[1m"
	ansiReset  = "\x1b[0m"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shouldColorize(writer io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// statusPrinter writes one-line outcome messages, coloured on a terminal.
type statusPrinter struct {
	out      io.Writer
	colorize bool
}

func newStatusPrinter(out io.Writer) statusPrinter {
	return statusPrinter{out: out, colorize: shouldColorize(out)}
}

func (p statusPrinter) paint(color, text string) string {
	if !p.colorize {
		return text
	}
	return color + text + ansiReset
}

func (p statusPrinter) ok(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", p.paint(ansiGreen, "✓"), fmt.Sprintf(format, args...))
}

func (p statusPrinter) warn(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", p.paint(ansiYellow, "!"), fmt.Sprintf(format, args...))
}

func (p statusPrinter) fail(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", p.paint(ansiRed, "✗"), fmt.Sprintf(format, args...))
}

func (p statusPrinter) heading(text string) {
	fmt.Fprintln(p.out, p.paint(ansiBold, text))
}

// printResult reports a finished or previewed run.
func printResult(p statusPrinter, result workflow.Result, opts preview.Options) {
	if result.DryRun || result.Issue == nil {
		printDraft(p, result, opts)
		return
	}
	issue := result.Issue
	target := issue.URL
	if target == "" {
		target = issue.Self
	}
	p.ok("Created %s %s", issue.Key, target)
	for _, sub := range result.Subtasks {
		p.ok("  subtask %s", sub.Key)
	}
	if result.LinkedTo != "" {
		p.ok("  linked to %s", result.LinkedTo)
	}
	if result.Commented {
		p.ok("  attached log excerpt")
	}
	for _, warning := range result.Warnings {
		p.warn("%s", warning)
	}
}

func printDraft(p statusPrinter, result workflow.Result, opts preview.Options) {
	d := result.Draft
	p.heading(fmt.Sprintf("%s [%s]", d.Summary, d.IssueType))
	if len(d.Labels) > 0 {
		fmt.Fprintf(p.out, "labels: %s\n", strings.Join(d.Labels, ", "))
	}
	if parent := result.Request.Parent; parent != "" {
		fmt.Fprintf(p.out, "parent: %s\n", parent)
	}
	fmt.Fprintln(p.out)
	if body := preview.Render(d.Description, opts); body != "" {
		fmt.Fprintln(p.out, body)
	}
	if len(d.Subtasks) > 0 {
		fmt.Fprintln(p.out)
		p.heading("Subtasks")
		for _, sub := range d.Subtasks {
			fmt.Fprintf(p.out, "  - %s\n", sub.Summary)
		}
	}
	fmt.Fprintln(p.out)
	p.warn("dry run: nothing was sent to Jira")
}
