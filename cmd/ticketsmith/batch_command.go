package main

import (
	"github.com/spf13/cobra"

	"ticketsmith/internal/manifest"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "batch <manifest.yaml>",
		Short: "Create every ticket listed in a YAML manifest",
		Long: "Create tickets from a YAML manifest without the drafting agent.\n\n" +
			"Each entry needs a summary; description, type, parent, labels and\n" +
			"subtasks are optional. A failing entry does not stop the rest.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			pipeline, store, err := ctx.pipeline(pipelineOptions{needTracker: !dryRun})
			if err != nil {
				return err
			}
			defer store.Close()

			results, batchErr := pipeline.SubmitBatch(cmd.Context(), m, dryRun)
			if jsonOut {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
				return batchErr
			}

			printer := newStatusPrinter(cmd.OutOrStdout())
			opts := previewOptions(cfg, cmd.OutOrStdout())
			for _, result := range results {
				if !dryRun && result.Issue == nil {
					continue
				}
				printResult(printer, result, opts)
			}
			if batchErr != nil {
				failed := 1
				if joined, ok := batchErr.(interface{ Unwrap() []error }); ok {
					failed = len(joined.Unwrap())
				}
				printer.fail("%d of %d tickets failed", failed, len(m.Tickets))
			}
			return batchErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and convert without creating anything in Jira")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output results as JSON")
	return cmd
}
