// Package agent drafts tickets by running an AI coding-agent CLI (for example
// `claude -p`) with the prompt on stdin and capturing stdout.
package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"ticketsmith/internal/services"
)

// stderrSnippetLimit bounds how much agent stderr is quoted in errors.
const stderrSnippetLimit = 400

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stdin io.Reader) (stdout, stderr []byte, err error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps agent CLI interactions.
type Client struct {
	binary  string
	args    []string
	timeout time.Duration
	exec    Executor
}

// New constructs an agent client.
func New(binary string, args []string, timeout time.Duration, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("agent binary required")
	}
	client := &Client{
		binary:  binary,
		args:    append([]string(nil), args...),
		timeout: timeout,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the configured executable name.
func (c *Client) Binary() string {
	return c.binary
}

// Draft runs the agent once and returns its trimmed stdout. The system and
// user prompts are joined with a blank line since CLI agents take a single
// prompt.
func (c *Client) Draft(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	prompt := strings.TrimSpace(strings.TrimSpace(systemPrompt) + "\n\n" + strings.TrimSpace(userPrompt))
	if prompt == "" {
		return "", services.Wrap(services.ErrValidation, "draft", "agent", "empty prompt", nil)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	stdout, stderr, err := c.exec.Run(runCtx, c.binary, c.args, strings.NewReader(prompt))
	if err != nil {
		return "", c.classify(runCtx, err, stderr)
	}
	out := strings.TrimSpace(string(stdout))
	if out == "" {
		return "", services.Wrap(services.ErrExternalTool, "draft", c.binary, "agent produced no output", nil)
	}
	return out, nil
}

func (c *Client) classify(ctx context.Context, err error, stderr []byte) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "draft", c.binary, fmt.Sprintf("no answer within %s", c.timeout), err)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return services.Wrap(services.ErrConfiguration, "draft", c.binary, "agent binary not found on PATH (set agent.binary)", err)
	}
	detail := "agent failed"
	if snippet := snippet(stderr); snippet != "" {
		detail = "agent failed: " + snippet
	}
	return services.Wrap(services.ErrExternalTool, "draft", c.binary, detail, err)
}

func snippet(stderr []byte) string {
	text := strings.Join(strings.Fields(string(stderr)), " ")
	if len(text) > stderrSnippetLimit {
		text = text[:stderrSnippetLimit] + "..."
	}
	return text
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, stdin io.Reader) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("run %s: %w", binary, err)
	}
	return stdout.Bytes(), stderr.Bytes(), nil
}
