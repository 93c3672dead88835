package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ticketsmith/internal/logs"
	"ticketsmith/internal/services"
)

const logsFollowWait = 2 * time.Second

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines      int
		follow     bool
		runID      string
		level      string
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent entries from the ticketsmith log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			minLevel, err := logs.ParseLevel(level)
			if err != nil {
				return services.Wrap(services.ErrValidation, "logs", "flags", "", err)
			}
			filter := logs.Filter{RunID: runID, MinLevel: minLevel}
			out := cmd.OutOrStdout()
			emit := func(raw []string) error {
				for _, line := range raw {
					entry := logs.Parse(line)
					if !filter.Match(entry) {
						continue
					}
					if jsonOutput {
						if err := writeJSON(cmd, entry); err != nil {
							return err
						}
						continue
					}
					fmt.Fprintln(out, logs.Format(entry))
				}
				return nil
			}

			path := cfg.LogPath()
			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			if err := emit(result.Lines); err != nil {
				return err
			}
			if !follow {
				if len(result.Lines) == 0 && !jsonOutput {
					fmt.Fprintf(cmd.ErrOrStderr(), "no log entries in %s\n", path)
				}
				return nil
			}
			return followLog(cmd.Context(), path, result.Offset, emit)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new entries until interrupted")
	cmd.Flags().StringVar(&runID, "run", "", "Only show entries for this run id")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level to show (debug, info, warn, error)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit entries as JSON objects")
	return cmd
}

func followLog(ctx context.Context, path string, offset int64, emit func([]string) error) error {
	for {
		result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: logsFollowWait})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		offset = result.Offset
		if err := emit(result.Lines); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
