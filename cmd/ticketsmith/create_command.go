package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ticketsmith/internal/config"
	"ticketsmith/internal/preview"
	"ticketsmith/internal/services"
	"ticketsmith/internal/source"
)

type createFlags struct {
	figma     string
	log       string
	text      string
	summary   string
	issueType string
	parent    string
	labels    []string
	dryRun    bool
	json      bool
}

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var flags createFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Draft a ticket with the agent and create it in Jira",
		Long: "Draft a ticket from exactly one source and create it in Jira.\n\n" +
			"  --figma <url>   a Figma file, design, prototype or board link\n" +
			"  --log <path>    an error log file, or - for stdin\n" +
			"  --text <text>   a free-form description, or - for stdin",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req, err := flags.request(cmd.InOrStdin())
			if err != nil {
				return err
			}

			pipeline, store, err := ctx.pipeline(pipelineOptions{needDrafter: true, needTracker: !flags.dryRun})
			if err != nil {
				return err
			}
			defer store.Close()

			run := pipeline.Run
			if flags.dryRun {
				run = pipeline.Preview
			}
			result, err := run(cmd.Context(), req)
			if flags.json {
				if result.RunID != "" {
					if encErr := writeJSON(cmd, result); encErr != nil {
						return encErr
					}
				}
				return err
			}
			if err != nil {
				return err
			}
			printResult(newStatusPrinter(cmd.OutOrStdout()), result, previewOptions(cfg, cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.figma, "figma", "", "Figma link to draft from")
	cmd.Flags().StringVar(&flags.log, "log", "", "Error log path to draft from (- for stdin)")
	cmd.Flags().StringVar(&flags.text, "text", "", "Description to draft from (- for stdin)")
	cmd.Flags().StringVar(&flags.summary, "summary", "", "Override the drafted summary")
	cmd.Flags().StringVarP(&flags.issueType, "type", "t", "", "Issue type (defaults to jira.default_issue_type)")
	cmd.Flags().StringVarP(&flags.parent, "parent", "p", "", "Existing issue key to link the new ticket to")
	cmd.Flags().StringSliceVarP(&flags.labels, "label", "l", nil, "Label to add (repeatable)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Draft and preview without creating anything in Jira")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Output the run result as JSON")
	cmd.MarkFlagsMutuallyExclusive("figma", "log", "text")
	cmd.MarkFlagsOneRequired("figma", "log", "text")
	return cmd
}

func (f createFlags) request(stdin io.Reader) (source.Request, error) {
	req := source.Request{
		IssueType: strings.TrimSpace(f.issueType),
		Parent:    strings.ToUpper(strings.TrimSpace(f.parent)),
		Labels:    f.labels,
		Summary:   strings.TrimSpace(f.summary),
	}
	switch {
	case f.figma != "":
		req.Kind = source.KindFigma
		req.Value = strings.TrimSpace(f.figma)
	case f.log != "":
		value, origin, err := readInput(f.log, stdin)
		if err != nil {
			return source.Request{}, err
		}
		req.Kind = source.KindLog
		req.Value = value
		req.Origin = origin
	case f.text != "":
		req.Kind = source.KindText
		if f.text == "-" {
			value, _, err := readInput("-", stdin)
			if err != nil {
				return source.Request{}, err
			}
			req.Value = value
		} else {
			req.Value = f.text
		}
	default:
		return source.Request{}, services.Wrap(services.ErrValidation, "create", "source", "one of --figma, --log or --text is required", nil)
	}
	if err := req.Validate(); err != nil {
		return source.Request{}, services.Wrap(services.ErrValidation, "create", "source", "", err)
	}
	return req, nil
}

// readInput reads path, or stdin when path is "-". The second return value
// names where the content came from.
func readInput(path string, stdin io.Reader) (string, string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "stdin", nil
	}
	resolved, err := config.ExpandPath(path)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", "", services.Wrap(services.ErrNotFound, "input", "read", resolved, nil)
		}
		return "", "", fmt.Errorf("read %s: %w", resolved, err)
	}
	return string(data), resolved, nil
}

func previewOptions(cfg *config.Config, out io.Writer) preview.Options {
	opts := preview.Options{Color: shouldColorize(out)}
	if cfg != nil {
		opts.Width = cfg.Preview.Width
		opts.CodeStyle = cfg.Preview.CodeStyle
	}
	return opts
}
