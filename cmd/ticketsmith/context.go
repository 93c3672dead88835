package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"ticketsmith/internal/config"
	"ticketsmith/internal/history"
	"ticketsmith/internal/logging"
	"ticketsmith/internal/notifications"
	"ticketsmith/internal/services"
	"ticketsmith/internal/services/agent"
	"ticketsmith/internal/services/jira"
	"ticketsmith/internal/services/llm"
	"ticketsmith/internal/workflow"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", "", err)
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(hub *logging.StreamHub) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg, hub)
}

// drafter returns the backend selected by agent.backend.
func (c *commandContext) drafter(cfg *config.Config) (workflow.Drafter, error) {
	switch cfg.Agent.Backend {
	case config.AgentBackendAPI:
		return llm.NewClient(llm.Config(cfg.GetLLM())), nil
	default:
		client, err := agent.New(cfg.Agent.Binary, cfg.Agent.Args, cfg.AgentTimeout())
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "draft", "agent", "", err)
		}
		return client, nil
	}
}

func (c *commandContext) jiraClient(cfg *config.Config) (*jira.Client, error) {
	if err := cfg.RequireJira(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "jira", "credentials", "", err)
	}
	return jira.New(jira.Config{
		BaseURL:  cfg.Jira.BaseURL,
		Email:    cfg.Jira.Email,
		APIToken: cfg.Jira.APIToken,
		Timeout:  cfg.JiraTimeout(),
	})
}

type pipelineOptions struct {
	needDrafter bool
	needTracker bool
	hub         *logging.StreamHub
	// quiet keeps log records off the terminal.
	quiet bool
}

// pipeline wires a workflow pipeline plus the history store it records to.
// The caller must close the returned store.
func (c *commandContext) pipeline(popts pipelineOptions) (*workflow.Pipeline, *history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	var logger *slog.Logger
	if popts.quiet {
		logger, err = logging.NewFileFromConfig(cfg, popts.hub)
	} else {
		logger, err = c.logger(popts.hub)
	}
	if err != nil {
		return nil, nil, err
	}
	opts := []workflow.Option{
		workflow.WithLogger(logger),
		workflow.WithNotifier(notifications.NewService(cfg)),
	}

	if popts.needDrafter {
		drafter, err := c.drafter(cfg)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, workflow.WithDrafter(drafter))
	}
	if popts.needTracker {
		client, err := c.jiraClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, workflow.WithTracker(client))
	}

	store, err := history.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	opts = append(opts, workflow.WithRecorder(store))
	return workflow.New(cfg, opts...), store, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
