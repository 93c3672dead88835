package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ticketsmith/internal/adf"
	"ticketsmith/internal/preview"
	"ticketsmith/internal/services"
)

func newConvertCommand() *cobra.Command {
	var check bool
	var compact bool

	cmd := &cobra.Command{
		Use:         "convert [file]",
		Short:       "Convert lightweight markup to Atlassian Document Format JSON",
		Long:        "Convert text from a file (or stdin when omitted or -) to an ADF document on stdout.",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readTextArg(cmd, args)
			if err != nil {
				return err
			}
			doc := adf.Convert(text)
			if check {
				if err := adf.Validate(doc); err != nil {
					var verr *adf.ValidationError
					if errors.As(err, &verr) {
						for _, issue := range verr.Issues {
							fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", issue.Location, issue.Message)
						}
					}
					return services.Wrap(services.ErrValidation, "convert", "check", "", err)
				}
			}

			if compact {
				data, err := json.Marshal(doc)
				if err != nil {
					return fmt.Errorf("encode document: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			return writeJSON(cmd, doc)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Validate the document against the ADF schema subset")
	cmd.Flags().BoolVar(&compact, "compact", false, "Emit single-line JSON")
	return cmd
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var width int
	var noColor bool

	cmd := &cobra.Command{
		Use:         "preview [file]",
		Short:       "Render lightweight markup in the terminal",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readTextArg(cmd, args)
			if err != nil {
				return err
			}
			// Rendering works without a config file; use it when it loads.
			cfg, _ := ctx.ensureConfig()
			opts := previewOptions(cfg, cmd.OutOrStdout())
			if width > 0 {
				opts.Width = width
			}
			if noColor {
				opts.Color = false
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), preview.Render(text, opts))
			return err
		},
	}

	cmd.Flags().IntVarP(&width, "width", "w", 0, "Wrap column (defaults to preview.width or the terminal width)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable ANSI styling")
	return cmd
}

func readTextArg(cmd *cobra.Command, args []string) (string, error) {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	text, _, err := readInput(path, cmd.InOrStdin())
	return text, err
}
