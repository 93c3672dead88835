package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeJira()
	c.normalizeAgent()
	c.normalizeLLM()
	c.normalizeServer()
	c.normalizePreview()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

// envOverride returns the trimmed value of the first set, non-empty variable.
func envOverride(names ...string) (string, bool) {
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

func (c *Config) normalizeJira() {
	if value, ok := envOverride("JIRA_BASE_URL"); ok {
		c.Jira.BaseURL = value
	}
	if value, ok := envOverride("JIRA_EMAIL"); ok {
		c.Jira.Email = value
	}
	if value, ok := envOverride("JIRA_API_TOKEN"); ok {
		c.Jira.APIToken = value
	}
	if value, ok := envOverride("JIRA_PROJECT_KEY"); ok {
		c.Jira.ProjectKey = value
	}
	c.Jira.BaseURL = strings.TrimRight(strings.TrimSpace(c.Jira.BaseURL), "/")
	c.Jira.Email = strings.TrimSpace(c.Jira.Email)
	c.Jira.APIToken = strings.TrimSpace(c.Jira.APIToken)
	c.Jira.ProjectKey = strings.ToUpper(strings.TrimSpace(c.Jira.ProjectKey))

	c.Jira.DefaultIssueType = strings.TrimSpace(c.Jira.DefaultIssueType)
	if c.Jira.DefaultIssueType == "" {
		c.Jira.DefaultIssueType = defaultIssueType
	}
	c.Jira.SubtaskIssueType = strings.TrimSpace(c.Jira.SubtaskIssueType)
	if c.Jira.SubtaskIssueType == "" {
		c.Jira.SubtaskIssueType = defaultSubtaskIssueType
	}
	c.Jira.LinkType = strings.TrimSpace(c.Jira.LinkType)
	if c.Jira.LinkType == "" {
		c.Jira.LinkType = defaultLinkType
	}
	if c.Jira.TimeoutSeconds <= 0 {
		c.Jira.TimeoutSeconds = defaultJiraTimeout
	}

	labels := make([]string, 0, len(c.Jira.Labels))
	seen := make(map[string]struct{}, len(c.Jira.Labels))
	for _, label := range c.Jira.Labels {
		normalized := strings.TrimSpace(label)
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		labels = append(labels, normalized)
	}
	c.Jira.Labels = labels
}

func (c *Config) normalizeNotifications() {
	if value, ok := envOverride("TICKETSMITH_NTFY_TOPIC"); ok {
		c.Notifications.NtfyTopic = value
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeout
	}
}

func (c *Config) normalizeAgent() {
	c.Agent.Backend = strings.ToLower(strings.TrimSpace(c.Agent.Backend))
	if c.Agent.Backend == "" {
		c.Agent.Backend = defaultAgentBackend
	}
	c.Agent.Binary = strings.TrimSpace(c.Agent.Binary)
	if c.Agent.Binary == "" {
		c.Agent.Binary = defaultAgentBinary
	}
	if c.Agent.Args == nil {
		c.Agent.Args = defaultAgentArgs()
	}
	if c.Agent.TimeoutSeconds <= 0 {
		c.Agent.TimeoutSeconds = defaultAgentTimeout
	}
	if c.Agent.MaxInputBytes <= 0 {
		c.Agent.MaxInputBytes = defaultAgentMaxInput
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if value, ok := envOverride("OPENROUTER_API_KEY"); ok {
		c.LLM.APIKey = value
	}
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if value, ok := envOverride("TICKETSMITH_API_TOKEN"); ok {
		c.Server.APIToken = value
	}
	if c.Server.EventBuffer <= 0 {
		c.Server.EventBuffer = defaultEventBuffer
	}
}

func (c *Config) normalizePreview() {
	if c.Preview.Width < 0 {
		c.Preview.Width = 0
	}
	c.Preview.CodeStyle = strings.TrimSpace(c.Preview.CodeStyle)
	if c.Preview.CodeStyle == "" {
		c.Preview.CodeStyle = defaultCodeStyle
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
