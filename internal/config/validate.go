package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Jira credentials are not
// required here; see RequireJira.
func (c *Config) Validate() error {
	if err := c.validateJira(); err != nil {
		return err
	}
	if err := c.validateAgent(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if c.Notifications.NtfyTopic != "" {
		if err := validateHTTPURL(c.Notifications.NtfyTopic); err != nil {
			return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL: %w", err)
		}
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateJira() error {
	if c.Jira.BaseURL != "" {
		if err := validateHTTPURL(c.Jira.BaseURL); err != nil {
			return fmt.Errorf("jira.base_url must be an http(s) URL: %w", err)
		}
	}
	if c.Jira.ProjectKey != "" && strings.ContainsAny(c.Jira.ProjectKey, " -") {
		return fmt.Errorf("jira.project_key %q must not contain spaces or dashes", c.Jira.ProjectKey)
	}
	if c.Jira.Email != "" && !strings.Contains(c.Jira.Email, "@") {
		return fmt.Errorf("jira.email %q must be an email address", c.Jira.Email)
	}
	return nil
}

func (c *Config) validateAgent() error {
	switch c.Agent.Backend {
	case AgentBackendCLI:
		if c.Agent.Binary == "" {
			return errors.New("agent.binary must be set when agent.backend is \"cli\"")
		}
	case AgentBackendAPI:
	default:
		return fmt.Errorf("agent.backend must be %q or %q, got %q", AgentBackendCLI, AgentBackendAPI, c.Agent.Backend)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.Agent.Backend != AgentBackendAPI {
		return nil
	}
	if c.LLM.APIKey == "" {
		return errors.New("llm.api_key is required when agent.backend is \"api\". Set OPENROUTER_API_KEY or edit the config file")
	}
	if err := validateHTTPURL(c.LLM.BaseURL); err != nil {
		return fmt.Errorf("llm.base_url must be an http(s) URL: %w", err)
	}
	return nil
}

func (c *Config) validateServer() error {
	host, port, err := net.SplitHostPort(c.Server.Bind)
	if err != nil {
		return fmt.Errorf("server.bind must be host:port: %w", err)
	}
	if port == "" {
		return errors.New("server.bind must include a port")
	}
	if host != "" && host != "127.0.0.1" && host != "localhost" && host != "::1" && c.Server.APIToken == "" {
		return fmt.Errorf("server.api_token is required when server.bind (%s) is not loopback", c.Server.Bind)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
