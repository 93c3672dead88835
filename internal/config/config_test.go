package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"ticketsmith/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"JIRA_BASE_URL", "JIRA_EMAIL", "JIRA_API_TOKEN", "JIRA_PROJECT_KEY",
		"OPENROUTER_API_KEY", "TICKETSMITH_API_TOKEN", "TICKETSMITH_NTFY_TOPIC",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "ticketsmith")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if cfg.Server.Bind != "127.0.0.1:7488" {
		t.Fatalf("unexpected server bind: %q", cfg.Server.Bind)
	}
	if cfg.Jira.DefaultIssueType != "Task" || cfg.Jira.SubtaskIssueType != "Subtask" || cfg.Jira.LinkType != "Relates" {
		t.Fatalf("unexpected jira defaults: %+v", cfg.Jira)
	}
	if cfg.Agent.Backend != config.AgentBackendCLI || cfg.Agent.Binary != "claude" {
		t.Fatalf("unexpected agent defaults: %+v", cfg.Agent)
	}
	if len(cfg.Agent.Args) != 1 || cfg.Agent.Args[0] != "-p" {
		t.Fatalf("unexpected agent args: %v", cfg.Agent.Args)
	}
	if cfg.Preview.CodeStyle != "monokai" {
		t.Fatalf("unexpected code style: %q", cfg.Preview.CodeStyle)
	}
	if err := cfg.RequireJira(); err == nil {
		t.Fatal("expected RequireJira to fail without credentials")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "ticketsmith.toml")

	type payload struct {
		Jira struct {
			BaseURL    string   `toml:"base_url"`
			Email      string   `toml:"email"`
			APIToken   string   `toml:"api_token"`
			ProjectKey string   `toml:"project_key"`
			Labels     []string `toml:"labels"`
		} `toml:"jira"`
		Agent struct {
			TimeoutSeconds int `toml:"timeout_seconds"`
		} `toml:"agent"`
	}
	custom := payload{}
	custom.Jira.BaseURL = "https://example.atlassian.net/"
	custom.Jira.Email = "dev@example.com"
	custom.Jira.APIToken = "file-token"
	custom.Jira.ProjectKey = " ops "
	custom.Jira.Labels = []string{"ai", " ai ", "", "triage"}
	custom.Agent.TimeoutSeconds = 42
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Jira.BaseURL != "https://example.atlassian.net" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Jira.BaseURL)
	}
	if cfg.Jira.ProjectKey != "OPS" {
		t.Fatalf("expected project key upper-cased, got %q", cfg.Jira.ProjectKey)
	}
	if strings.Join(cfg.Jira.Labels, ",") != "ai,triage" {
		t.Fatalf("expected deduplicated labels, got %v", cfg.Jira.Labels)
	}
	if cfg.AgentTimeout().Seconds() != 42 {
		t.Fatalf("expected agent timeout 42s, got %s", cfg.AgentTimeout())
	}
	if err := cfg.RequireJira(); err != nil {
		t.Fatalf("RequireJira returned error: %v", err)
	}
}

func TestEnvVarOverridesConfigFileForSecrets(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "ticketsmith.toml")
	contents := `
[jira]
base_url = "https://file.atlassian.net"
email = "file@example.com"
api_token = "file-token"
project_key = "FILE"

[llm]
api_key = "file-llm"

[server]
api_token = "file-server"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("JIRA_BASE_URL", "https://env.atlassian.net")
	t.Setenv("JIRA_EMAIL", "env@example.com")
	t.Setenv("JIRA_API_TOKEN", "env-token")
	t.Setenv("JIRA_PROJECT_KEY", "env")
	t.Setenv("OPENROUTER_API_KEY", "env-llm")
	t.Setenv("TICKETSMITH_API_TOKEN", "env-server")
	t.Setenv("TICKETSMITH_NTFY_TOPIC", "https://ntfy.example/tickets")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Jira.BaseURL != "https://env.atlassian.net" {
		t.Errorf("expected base url from env, got %q", cfg.Jira.BaseURL)
	}
	if cfg.Jira.Email != "env@example.com" {
		t.Errorf("expected email from env, got %q", cfg.Jira.Email)
	}
	if cfg.Jira.APIToken != "env-token" {
		t.Errorf("expected token from env, got %q", cfg.Jira.APIToken)
	}
	if cfg.Jira.ProjectKey != "ENV" {
		t.Errorf("expected project key from env, got %q", cfg.Jira.ProjectKey)
	}
	if cfg.LLM.APIKey != "env-llm" {
		t.Errorf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Server.APIToken != "env-server" {
		t.Errorf("expected server token from env, got %q", cfg.Server.APIToken)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/tickets" {
		t.Errorf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "JIRA_API_TOKEN") {
		t.Fatalf("sample config missing env documentation: %s", contents)
	}

	cfg := config.Default()
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.StateDir, "ticketsmith") {
		t.Fatalf("expected state dir to contain ticketsmith, got %q", cfg.Paths.StateDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestRedactedMasksSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.Jira.APIToken = "secret"
	cfg.LLM.APIKey = "secret"
	redacted := cfg.Redacted()
	if redacted.Jira.APIToken == "secret" || redacted.LLM.APIKey == "secret" {
		t.Fatalf("expected secrets masked, got %+v", redacted)
	}
	if redacted.Server.APIToken != "" {
		t.Fatalf("expected empty secret to stay empty, got %q", redacted.Server.APIToken)
	}
	if cfg.Jira.APIToken != "secret" {
		t.Fatal("Redacted must not modify the receiver")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"bad backend", func(c *config.Config) { c.Agent.Backend = "telepathy" }, "agent.backend"},
		{"api backend without key", func(c *config.Config) { c.Agent.Backend = config.AgentBackendAPI }, "llm.api_key"},
		{"bad jira url", func(c *config.Config) { c.Jira.BaseURL = "ftp://jira" }, "jira.base_url"},
		{"bad project key", func(c *config.Config) { c.Jira.ProjectKey = "MY PROJ" }, "jira.project_key"},
		{"bad email", func(c *config.Config) { c.Jira.Email = "nobody" }, "jira.email"},
		{"bad bind", func(c *config.Config) { c.Server.Bind = "7488" }, "server.bind"},
		{"public bind without token", func(c *config.Config) { c.Server.Bind = "0.0.0.0:7488" }, "server.api_token"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }, "notifications.ntfy_topic"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error naming %q, got %v", tc.want, err)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadReportsParsePosition(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(configPath, []byte("[jira]\nbase_url = \n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(configPath)
	if err == nil || !strings.Contains(err.Error(), configPath+":2:") {
		t.Fatalf("expected parse error with position, got %v", err)
	}
}

func TestExpandPathResolvesHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := config.ExpandPath("~/tickets/config.toml")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	if want := filepath.Join(home, "tickets", "config.toml"); got != want {
		t.Fatalf("ExpandPath = %q, want %q", got, want)
	}
	if got, _ := config.ExpandPath("~"); got != home {
		t.Fatalf("ExpandPath(~) = %q, want %q", got, home)
	}
	if got, _ := config.ExpandPath(""); got != "" {
		t.Fatalf("expected empty path to stay empty, got %q", got)
	}
}
