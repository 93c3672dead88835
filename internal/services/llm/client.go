package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ticketsmith/internal/services"
	"ticketsmith/internal/services/retry"
)

const (
	defaultHTTPTimeout = 15 * time.Second
	defaultEndpoint    = "https://openrouter.ai/api/v1/chat/completions"
)

var errMissingAPIKey = errors.New("api key required")

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client drafts tickets through an OpenAI-compatible chat completion endpoint.
type Client struct {
	cfg   Config
	http  *http.Client
	retry retry.Policy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

// NewClient constructs a client. An empty BaseURL selects OpenRouter.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultEndpoint
	}

	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: timeout},
		retry: retry.Default(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// CompleteJSON sends a JSON-mode completion and returns the model's raw
// payload. Empty completions are retried like transient HTTP failures.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	const op = "llm complete"
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	switch {
	case c.cfg.APIKey == "":
		return "", fmt.Errorf("%s: %w", op, errMissingAPIKey)
	case systemPrompt == "":
		return "", fmt.Errorf("%s: system prompt required", op)
	case userPrompt == "":
		return "", fmt.Errorf("%s: user prompt required", op)
	}
	return c.complete(ctx, op, c.jsonRequest(systemPrompt, userPrompt))
}

// Draft is CompleteJSON with failures tagged by services error markers so the
// workflow maps them onto exit codes.
func (c *Client) Draft(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	content, err := c.CompleteJSON(ctx, systemPrompt, userPrompt)
	if err == nil {
		return content, nil
	}
	marker, msg := services.ErrExternalTool, "completion failed"
	var statusErr *statusError
	switch {
	case errors.Is(err, errMissingAPIKey):
		marker, msg = services.ErrConfiguration, "api key missing"
	case errors.Is(err, context.DeadlineExceeded):
		marker, msg = services.ErrTimeout, "request timed out"
	case errors.As(err, &statusErr) && statusErr.rejectedCredentials():
		marker, msg = services.ErrConfiguration, "api key rejected"
	}
	return "", services.Wrap(marker, "draft", "llm", msg, err)
}

// HealthCheck sends a tiny JSON-mode prompt to verify the key and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	const op = "llm health"
	if c.cfg.APIKey == "" {
		return fmt.Errorf("%s: %w", op, errMissingAPIKey)
	}
	content, err := c.complete(ctx, op, c.jsonRequest("You must respond with JSON only.", `Respond with {"ok":true}`))
	if err != nil {
		return err
	}
	var pong struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(content, &pong); err != nil {
		return fmt.Errorf("%s: parse payload: %w", op, err)
	}
	if !pong.OK {
		return fmt.Errorf("%s: unexpected response %s", op, snippet(content))
	}
	return nil
}

func (c *Client) jsonRequest(systemPrompt, userPrompt string) completionRequest {
	return completionRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	}
}
