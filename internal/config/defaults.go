package config

const (
	defaultConfigPath        = "~/.config/ticketsmith/config.toml"
	projectConfigName        = "ticketsmith.toml"
	defaultStateDir          = "~/.local/share/ticketsmith"
	defaultLogDir            = "~/.local/share/ticketsmith/logs"
	defaultIssueType         = "Task"
	defaultSubtaskIssueType  = "Subtask"
	defaultLinkType          = "Relates"
	defaultJiraTimeout       = 30
	defaultAgentBackend      = "cli"
	defaultAgentBinary       = "claude"
	defaultAgentTimeout      = 300
	defaultAgentMaxInput     = 64 * 1024
	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-3-flash-preview"
	defaultLLMReferer        = "https://github.com/ticketsmith/ticketsmith"
	defaultLLMTitle          = "ticketsmith"
	defaultLLMTimeoutSeconds = 120
	defaultServerBind        = "127.0.0.1:7488"
	defaultEventBuffer       = 2048
	defaultCodeStyle         = "monokai"
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"

	// AgentBackendCLI spawns the configured agent binary.
	AgentBackendCLI = "cli"
	// AgentBackendAPI calls the [llm] chat-completion endpoint.
	AgentBackendAPI = "api"
)

func defaultAgentArgs() []string {
	return []string{"-p"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Jira: Jira{
			DefaultIssueType: defaultIssueType,
			SubtaskIssueType: defaultSubtaskIssueType,
			LinkType:         defaultLinkType,
			TimeoutSeconds:   defaultJiraTimeout,
		},
		Agent: Agent{
			Backend:        defaultAgentBackend,
			Binary:         defaultAgentBinary,
			Args:           defaultAgentArgs(),
			TimeoutSeconds: defaultAgentTimeout,
			MaxInputBytes:  defaultAgentMaxInput,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Server: Server{
			Bind:        defaultServerBind,
			EventBuffer: defaultEventBuffer,
		},
		Preview: Preview{
			CodeStyle: defaultCodeStyle,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
