package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"ticketsmith/internal/adf"
	"ticketsmith/internal/services"
	"ticketsmith/internal/services/retry"
)

const (
	apiPrefix      = "/rest/api/3"
	defaultTimeout = 30 * time.Second
	bodySnippet    = 300
)

// HTTPDoer describes the HTTP client used by the Jira client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the connection settings.
type Config struct {
	BaseURL  string
	Email    string
	APIToken string
	Timeout  time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
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

// Client talks to a single Jira Cloud site.
type Client struct {
	baseURL  string
	email    string
	apiToken string
	http     HTTPDoer
	retry    retry.Policy
}

// New constructs a client. Missing credentials are reported as configuration errors.
func New(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "jira", "client", "base url required", nil)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "jira", "client", "invalid base url", err)
	}
	if strings.TrimSpace(cfg.Email) == "" || strings.TrimSpace(cfg.APIToken) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "jira", "client", "email and api token required", nil)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &Client{
		baseURL:  baseURL,
		email:    strings.TrimSpace(cfg.Email),
		apiToken: strings.TrimSpace(cfg.APIToken),
		http:     &http.Client{Timeout: timeout},
		retry:    retry.Default(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BrowseURL returns the human link for an issue key.
func (c *Client) BrowseURL(key string) string {
	return c.baseURL + "/browse/" + url.PathEscape(key)
}

// CreateIssue creates an issue and returns its key.
func (c *Client) CreateIssue(ctx context.Context, in IssueInput) (Issue, error) {
	if err := in.Validate(); err != nil {
		return Issue{}, services.Wrap(services.ErrValidation, "create", "issue input", "invalid issue", err)
	}
	fields := issueFields{
		Project:     keyRef{Key: in.ProjectKey},
		IssueType:   nameRef{Name: in.IssueType},
		Summary:     strings.TrimSpace(in.Summary),
		Description: in.Description,
		Labels:      in.Labels,
	}
	if in.Parent != "" {
		fields.Parent = &keyRef{Key: in.Parent}
	}

	var issue Issue
	if err := c.do(ctx, http.MethodPost, "/issue", createIssueRequest{Fields: fields}, &issue); err != nil {
		return Issue{}, c.classify("create", "issue", err)
	}
	if issue.Key == "" {
		return Issue{}, services.Wrap(services.ErrExternalTool, "create", "issue", "response missing issue key", nil)
	}
	issue.URL = c.BrowseURL(issue.Key)
	return issue, nil
}

// CreateSubtask creates in as a child of parentKey.
func (c *Client) CreateSubtask(ctx context.Context, parentKey string, in IssueInput) (Issue, error) {
	if !ValidIssueKey(parentKey) {
		return Issue{}, services.Wrap(services.ErrValidation, "subtasks", "parent", fmt.Sprintf("invalid parent key %q", parentKey), nil)
	}
	in.Parent = parentKey
	return c.CreateIssue(ctx, in)
}

// LinkIssues relates two issues with the named link type (for example "Relates" or "Blocks").
func (c *Client) LinkIssues(ctx context.Context, linkType, inwardKey, outwardKey string) error {
	linkType = strings.TrimSpace(linkType)
	if linkType == "" {
		return services.Wrap(services.ErrValidation, "link", "issue link", "link type required", nil)
	}
	for _, key := range []string{inwardKey, outwardKey} {
		if !ValidIssueKey(key) {
			return services.Wrap(services.ErrValidation, "link", "issue link", fmt.Sprintf("invalid issue key %q", key), nil)
		}
	}
	payload := issueLinkRequest{
		Type:         nameRef{Name: linkType},
		InwardIssue:  keyRef{Key: inwardKey},
		OutwardIssue: keyRef{Key: outwardKey},
	}
	if err := c.do(ctx, http.MethodPost, "/issueLink", payload, nil); err != nil {
		return c.classify("link", "issue link", err)
	}
	return nil
}

// AddComment posts doc as a comment on key.
func (c *Client) AddComment(ctx context.Context, key string, doc adf.Document) error {
	if !ValidIssueKey(key) {
		return services.Wrap(services.ErrValidation, "attach", "comment", fmt.Sprintf("invalid issue key %q", key), nil)
	}
	if err := c.do(ctx, http.MethodPost, "/issue/"+url.PathEscape(key)+"/comment", commentRequest{Body: doc}, nil); err != nil {
		return c.classify("attach", "comment", err)
	}
	return nil
}

// Myself returns the authenticated user; used as a credential check.
func (c *Client) Myself(ctx context.Context) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/myself", nil, &user); err != nil {
		return User{}, c.classify("status", "myself", err)
	}
	return user, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var encoded []byte
	if payload != nil {
		var err error
		if encoded, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	attempts := c.retry.MaxAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.doOnce(ctx, method, path, encoded, out)
		if err == nil {
			return nil
		}
		lastErr = err
		delay, again := c.retryDelay(ctx, err, attempt, attempts)
		if !again {
			return err
		}
		if err := c.retry.Sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return newAPIError(resp, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type retryAfterError struct {
	*APIError
	after time.Duration
}

func (e *retryAfterError) Unwrap() error { return e.APIError }

func newAPIError(resp *http.Response, raw []byte) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var payload errorPayload
	if err := json.Unmarshal(raw, &payload); err == nil {
		apiErr.Messages = payload.ErrorMessages
		apiErr.FieldErrors = payload.Errors
	}
	if len(apiErr.Messages) == 0 && len(apiErr.FieldErrors) == 0 {
		text := strings.Join(strings.Fields(string(raw)), " ")
		if len(text) > bodySnippet {
			text = text[:bodySnippet] + "..."
		}
		apiErr.Body = text
	}
	if after, ok := retry.ParseRetryAfter(resp.Header.Get("Retry-After")); ok {
		return &retryAfterError{APIError: apiErr, after: after}
	}
	return apiErr
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if !retry.RetryableStatus(apiErr.Status) {
			return 0, false
		}
		var after *retryAfterError
		if errors.As(err, &after) && after.after > 0 {
			return c.retry.Cap(after.after), true
		}
		return c.retry.Backoff(attempt), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.retry.Backoff(attempt), true
	}
	return 0, false
}

func (c *Client) classify(stage, op string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusBadRequest:
			return services.Wrap(services.ErrValidation, stage, op, "jira rejected the request", err)
		case apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, stage, op, "jira credentials rejected", err)
		case apiErr.Status == http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, stage, op, "jira resource not found", err)
		case retry.RetryableStatus(apiErr.Status):
			return services.Wrap(services.ErrTransient, stage, op, "jira unavailable", err)
		default:
			return services.Wrap(services.ErrExternalTool, stage, op, "jira request failed", err)
		}
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return services.Wrap(services.ErrTimeout, stage, op, "jira request timed out", err)
	}
	return services.Wrap(services.ErrTransient, stage, op, "jira request failed", err)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
