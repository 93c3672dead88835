package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Jira contains connection and issue defaults for the Jira Cloud REST API.
type Jira struct {
	BaseURL          string   `toml:"base_url"`
	Email            string   `toml:"email"`
	APIToken         string   `toml:"api_token"`
	ProjectKey       string   `toml:"project_key"`
	DefaultIssueType string   `toml:"default_issue_type"`
	SubtaskIssueType string   `toml:"subtask_issue_type"`
	LinkType         string   `toml:"link_type"`
	Labels           []string `toml:"labels"`
	TimeoutSeconds   int      `toml:"timeout_seconds"`
}

// Agent contains configuration for the drafting backend.
type Agent struct {
	// Backend is "cli" (spawn Binary) or "api" (use the [llm] settings).
	Backend        string   `toml:"backend"`
	Binary         string   `toml:"binary"`
	Args           []string `toml:"args"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	// MaxInputBytes caps how much of a log source is passed to the agent.
	MaxInputBytes int `toml:"max_input_bytes"`
}

// LLM contains chat-completion settings used by the api backend.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Server contains configuration for the HTTP API and event relay.
type Server struct {
	Bind        string `toml:"bind"`
	APIToken    string `toml:"api_token"`
	EventBuffer int    `toml:"event_buffer"`
}

// Preview contains terminal rendering settings.
type Preview struct {
	Width     int    `toml:"width"`
	CodeStyle string `toml:"code_style"`
}

// Notifications contains ntfy push settings.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/my-team-tickets.
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ticketsmith.
//
// Configuration sections by subsystem:
//   - Paths: state (history database, lock file) and log directories
//   - Jira: REST endpoint, credentials, and issue defaults
//   - Agent: drafting backend selection and CLI agent invocation
//   - LLM: chat-completion endpoint for the api backend
//   - Server: HTTP bind address, bearer token, and event buffer size
//   - Preview: terminal rendering width and code style
//   - Notifications: optional ntfy topic for run outcomes
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Jira          Jira          `toml:"jira"`
	Agent         Agent         `toml:"agent"`
	LLM           LLM           `toml:"llm"`
	Server        Server        `toml:"server"`
	Preview       Preview       `toml:"preview"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the location of the ticket history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LogPath returns the log file shared by the CLI and the server.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "ticketsmith.log")
}

// LockPath returns the location of the server single-instance lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "ticketsmith.lock")
}

// JiraTimeout returns the per-request Jira timeout.
func (c *Config) JiraTimeout() time.Duration {
	return time.Duration(c.Jira.TimeoutSeconds) * time.Second
}

// AgentTimeout returns the wall-clock limit for a single drafting call.
func (c *Config) AgentTimeout() time.Duration {
	return time.Duration(c.Agent.TimeoutSeconds) * time.Second
}

// RequireJira reports whether the Jira credentials needed to submit issues
// are present. Commands that only convert or preview text skip this check.
func (c *Config) RequireJira() error {
	missing := make([]string, 0, 4)
	if c.Jira.BaseURL == "" {
		missing = append(missing, "jira.base_url (JIRA_BASE_URL)")
	}
	if c.Jira.Email == "" {
		missing = append(missing, "jira.email (JIRA_EMAIL)")
	}
	if c.Jira.APIToken == "" {
		missing = append(missing, "jira.api_token (JIRA_API_TOKEN)")
	}
	if c.Jira.ProjectKey == "" {
		missing = append(missing, "jira.project_key (JIRA_PROJECT_KEY)")
	}
	if len(missing) == 0 {
		return nil
	}
	configPath, err := DefaultConfigPath()
	if err != nil {
		configPath = defaultConfigPath
	}
	return fmt.Errorf("missing Jira settings: %s. Set the env vars or edit %s (create with 'ticketsmith config init')",
		strings.Join(missing, ", "), configPath)
}

// Redacted returns a copy with secrets masked, suitable for display.
func (c *Config) Redacted() Config {
	out := *c
	out.Jira.APIToken = mask(c.Jira.APIToken)
	out.LLM.APIKey = mask(c.LLM.APIKey)
	out.Server.APIToken = mask(c.Server.APIToken)
	out.Jira.Labels = append([]string(nil), c.Jira.Labels...)
	out.Agent.Args = append([]string(nil), c.Agent.Args...)
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

// LLMConfig contains the LLM settings used by the api backend.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the chat-completion connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
