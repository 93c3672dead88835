package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ticketsmith/internal/logging"
	"ticketsmith/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion and ticket API over HTTP",
		Long: "Serve the HTTP API with a server-sent event relay of run logs.\n\n" +
			"Ticket creation is refused with 503 until Jira credentials are configured;\n" +
			"dry runs and conversion work without them.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if b := strings.TrimSpace(bind); b != "" {
				cfg.Server.Bind = b
			}

			hub := logging.NewStreamHub(cfg.Server.EventBuffer)
			// The tracker is optional here: the server checks credentials per request.
			pipeline, store, err := ctx.pipeline(pipelineOptions{
				needDrafter: true,
				needTracker: cfg.RequireJira() == nil,
				hub:         hub,
			})
			if err != nil {
				return err
			}
			defer store.Close()

			logger, err := ctx.logger(hub)
			if err != nil {
				return err
			}
			srv, err := server.New(server.Options{
				Config:  cfg,
				Runner:  pipeline,
				History: store,
				Hub:     hub,
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			if err := srv.Start(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", srv.Addr())

			<-cmd.Context().Done()
			srv.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override server.bind (host:port)")
	return cmd
}
