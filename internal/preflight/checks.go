package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"ticketsmith/internal/config"
	"ticketsmith/internal/deps"
	"ticketsmith/internal/services/jira"
	"ticketsmith/internal/services/llm"
	"ticketsmith/internal/services/retry"
)

const (
	llmCheckTimeout  = 30 * time.Second
	jiraCheckTimeout = 10 * time.Second
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It makes a single attempt with no retries.
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, llmCheckTimeout)
	defer cancel()

	client := llm.NewClient(llm.Config(cfg), llm.WithRetryPolicy(retry.Policy{Attempts: 1}))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeTimeout(err, "LLM API")}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("API reachable (%s)", cfg.Model)}
}

// CheckJira verifies the configured credentials against /myself.
func CheckJira(ctx context.Context, cfg *config.Config, opts ...jira.Option) Result {
	const name = "Jira"

	if err := cfg.RequireJira(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	opts = append([]jira.Option{jira.WithRetryPolicy(retry.Policy{Attempts: 1})}, opts...)
	client, err := jira.New(jira.Config{
		BaseURL:  cfg.Jira.BaseURL,
		Email:    cfg.Jira.Email,
		APIToken: cfg.Jira.APIToken,
		Timeout:  jiraCheckTimeout,
	}, opts...)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, jiraCheckTimeout)
	defer cancel()

	user, err := client.Myself(checkCtx)
	if err != nil {
		var apiErr *jira.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == 401 || apiErr.Status == 403) {
			return Result{Name: name, Detail: fmt.Sprintf("auth failed (%d)", apiErr.Status)}
		}
		return Result{Name: name, Detail: summarizeTimeout(err, "Jira")}
	}
	if !user.Active {
		return Result{Name: name, Detail: fmt.Sprintf("account %s is inactive", user.EmailAddress)}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s as %s (project %s)", cfg.Jira.BaseURL, user.DisplayName, cfg.Jira.ProjectKey),
	}
}

// CheckAgent verifies the CLI drafting agent is installed.
func CheckAgent(cfg *config.Config) Result {
	const name = "Drafting agent"

	statuses := deps.CheckBinaries([]deps.Requirement{{
		Name:        name,
		Command:     cfg.Agent.Binary,
		Description: "Required for the cli drafting backend",
	}})
	status := statuses[0]
	if !status.Available {
		return Result{Name: name, Detail: status.Detail}
	}
	return Result{Name: name, Passed: true, Detail: status.Path}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeTimeout(err error, service string) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("health check timed out (%s unresponsive)", service)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("health check timed out (%s unreachable)", service)
	}
	return err.Error()
}
