package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"ticketsmith/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Jira settings point at a placeholder site; use WithJira to aim them at an
// httptest server.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Jira.BaseURL = "https://example.atlassian.net"
	cfgVal.Jira.Email = "bot@example.com"
	cfgVal.Jira.APIToken = "test-token"
	cfgVal.Jira.ProjectKey = "OPS"
	cfgVal.Server.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithJira points the Jira settings at baseURL.
func WithJira(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Jira.BaseURL = baseURL
	}
}

// WithServerToken sets the API bearer token.
func WithServerToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.APIToken = token
	}
}

// WithStubbedAgent writes an executable agent stub that prints output and
// points agent.binary at it.
func WithStubbedAgent(output string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		outPath := filepath.Join(binDir, "agent-output.txt")
		if err := os.WriteFile(outPath, []byte(output), 0o644); err != nil {
			b.t.Fatalf("write agent output: %v", err)
		}
		script := []byte("#!/bin/sh\ncat > /dev/null\ncat '" + outPath + "'\n")
		target := filepath.Join(binDir, "agent")
		if err := os.WriteFile(target, script, 0o755); err != nil {
			b.t.Fatalf("write agent stub: %v", err)
		}
		b.cfg.Agent.Binary = target
		b.cfg.Agent.Args = nil
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
