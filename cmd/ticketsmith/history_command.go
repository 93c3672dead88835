package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ticketsmith/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var key string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent ticket runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if strings.TrimSpace(key) != "" {
				entry, err := store.FindByKey(cmd.Context(), key)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, entry)
				}
				printHistoryEntry(out, *entry)
				return nil
			}

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				if entries == nil {
					entries = []history.Entry{}
				}
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Number of runs to show")
	cmd.Flags().StringVarP(&key, "key", "k", "", "Show the run that created an issue key")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func renderHistoryTable(entries []history.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		key := entry.IssueKey
		if key == "" {
			key = "-"
		}
		if n := len(entry.Subtasks); n > 0 {
			key = fmt.Sprintf("%s (+%d)", key, n)
		}
		rows = append(rows, []string{
			entry.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(entry.Status),
			key,
			entry.IssueType,
			entry.SourceKind,
			truncate(entry.Summary, 48),
			formatDuration(entry.Duration),
		})
	}
	return renderTable([]column{
		{Title: "When"},
		{Title: "Status"},
		{Title: "Issue"},
		{Title: "Type"},
		{Title: "Source"},
		{Title: "Summary", Width: 48},
		{Title: "Took", Right: true},
	}, rows)
}

func printHistoryEntry(out io.Writer, entry history.Entry) {
	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(out, "%-10s %s\n", label+":", value)
	}
	field("Issue", entry.IssueKey)
	field("URL", entry.IssueURL)
	field("Status", string(entry.Status))
	field("Summary", entry.Summary)
	field("Type", entry.IssueType)
	field("Source", strings.TrimSpace(entry.SourceKind+" "+entry.SourceRef))
	field("Parent", entry.ParentKey)
	field("Subtasks", strings.Join(entry.Subtasks, ", "))
	field("Run", entry.RunID)
	field("When", entry.CreatedAt.Local().Format(time.RFC3339))
	field("Took", formatDuration(entry.Duration))
	field("Error", entry.Error)
	if entry.Excerpt != "" {
		fmt.Fprintf(out, "\n%s\n", entry.Excerpt)
	}
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
