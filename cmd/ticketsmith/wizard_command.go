package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"ticketsmith/internal/manifest"
	"ticketsmith/internal/services"
	"ticketsmith/internal/wizard"
)

func newWizardCommand(ctx *commandContext) *cobra.Command {
	var issueType string
	var parent string
	var labels []string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Draft a ticket interactively and confirm before creating it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if in, ok := cmd.InOrStdin().(*os.File); !ok || !isatty.IsTerminal(in.Fd()) {
				return services.Wrap(services.ErrValidation, "wizard", "terminal", "the wizard needs an interactive terminal; use 'ticketsmith create' instead", nil)
			}

			pipeline, store, err := ctx.pipeline(pipelineOptions{needDrafter: true, needTracker: !dryRun, quiet: true})
			if err != nil {
				return err
			}
			defer store.Close()

			defaultType := issueType
			if defaultType == "" {
				defaultType = cfg.Jira.DefaultIssueType
			}
			outcome, err := wizard.Run(cmd.Context(), pipeline, wizard.Options{
				DefaultType: defaultType,
				Parent:      parent,
				Labels:      labels,
				Color:       shouldColorize(cmd.OutOrStdout()),
			}, wizard.WithIO(cmd.InOrStdin(), cmd.OutOrStdout()), wizard.WithAltScreen())
			if err != nil {
				return err
			}

			printer := newStatusPrinter(cmd.OutOrStdout())
			if !outcome.Confirmed {
				printer.warn("cancelled; nothing was created")
				return nil
			}
			if dryRun {
				printResult(printer, outcome.Result, previewOptions(cfg, cmd.OutOrStdout()))
				return nil
			}

			d := outcome.Result.Draft
			result, err := pipeline.Submit(cmd.Context(), manifest.Ticket{
				Summary:     d.Summary,
				Type:        d.IssueType,
				Description: d.Description,
				Parent:      outcome.Request.Parent,
				Labels:      d.Labels,
				Subtasks:    d.Subtasks,
			}, false)
			if err != nil {
				return err
			}
			printResult(printer, result, previewOptions(cfg, cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&issueType, "type", "t", "", "Default issue type offered by the wizard")
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "Existing issue key to link the new ticket to")
	cmd.Flags().StringSliceVarP(&labels, "label", "l", nil, "Label to add (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Stop after the preview without creating anything")
	return cmd
}
