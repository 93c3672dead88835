package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ticketsmith/internal/config"
	"ticketsmith/internal/notifications"
	"ticketsmith/internal/preflight"
	"ticketsmith/internal/services"
)

const doctorTimeout = 45 * time.Second

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		notify     bool
	)
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, Jira credentials, and the drafting backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			checkCtx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
			defer cancel()

			results := preflight.RunAll(checkCtx, cfg)
			if notify {
				results = append(results, checkNotification(checkCtx, cfg))
			}
			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				printer := newStatusPrinter(cmd.OutOrStdout())
				if ctx.configPath != "" {
					printer.ok("%-16s %s", "Config", ctx.configPath)
				}
				for _, r := range results {
					if r.Passed {
						printer.ok("%-16s %s", r.Name, r.Detail)
					} else {
						printer.fail("%-16s %s", r.Name, r.Detail)
					}
				}
			}
			if failed := preflight.Failed(results); failed > 0 {
				return services.Wrap(services.ErrConfiguration, "doctor", "", fmt.Sprintf("%d check(s) failed", failed), nil)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit check results as JSON")
	cmd.Flags().BoolVar(&notify, "notify", false, "Also send a test notification to the ntfy topic")
	return cmd
}

func checkNotification(ctx context.Context, cfg *config.Config) preflight.Result {
	const name = "Notifications"
	if cfg.Notifications.NtfyTopic == "" {
		return preflight.Result{Name: name, Detail: "notifications.ntfy_topic not set"}
	}
	if err := notifications.NewService(cfg).Publish(ctx, notifications.EventTest, nil); err != nil {
		return preflight.Result{Name: name, Detail: err.Error()}
	}
	return preflight.Result{Name: name, Passed: true, Detail: "test notification sent to " + cfg.Notifications.NtfyTopic}
}
