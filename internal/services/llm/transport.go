package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"ticketsmith/internal/services/retry"
)

type statusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.Code, e.Body)
}

func (e *statusError) rejectedCredentials() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

type emptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op, e.FinishReason, e.Refusal, e.Snippet)
}

// complete runs req through the retry policy and returns the first non-empty
// completion.
func (c *Client) complete(ctx context.Context, op string, req completionRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%s: encode body: %w", op, err)
	}

	attempts := c.retry.MaxAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := c.attempt(ctx, op, body)
		if err == nil {
			return content, nil
		}
		lastErr = err
		delay, again := c.backoff(ctx, err, attempt, attempts)
		if !again {
			if attempt == 1 {
				return "", err
			}
			return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempt, err)
		}
		if err := c.retry.Sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, op string, body []byte) (string, error) {
	resp, raw, err := c.post(ctx, body)
	if err != nil {
		return "", err
	}
	choice := resp.pick()
	if choice.content != "" {
		return choice.content, nil
	}
	if len(resp.Choices) == 0 {
		return "", &emptyContentError{Op: op, Snippet: snippet(string(raw))}
	}
	return "", &emptyContentError{
		Op:           op,
		FinishReason: choice.finishReason,
		Refusal:      choice.refusal,
		Snippet:      snippet(string(raw)),
	}
}

func (c *Client) post(ctx context.Context, body []byte) (completionResponse, []byte, error) {
	var out completionResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return out, nil, fmt.Errorf("llm request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return out, nil, fmt.Errorf("llm request (timeout=%s): %w", c.http.Timeout, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, nil, fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		after, _ := retry.ParseRetryAfter(resp.Header.Get("Retry-After"))
		return out, raw, &statusError{Code: resp.StatusCode, Body: snippet(string(raw)), RetryAfter: after}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, raw, fmt.Errorf("llm request: decode response: %w", err)
	}
	if out.Error != nil {
		return out, raw, fmt.Errorf("llm request: api error: %s", strings.TrimSpace(out.Error.Message))
	}
	return out, raw, nil
}

// backoff decides whether err is worth another attempt and how long to wait.
func (c *Client) backoff(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var empty *emptyContentError
	var status *statusError
	var netErr net.Error
	switch {
	case errors.As(err, &empty):
		return c.retry.Backoff(attempt), true
	case errors.As(err, &status):
		if !retry.RetryableStatus(status.Code) {
			return 0, false
		}
		if status.RetryAfter > 0 {
			return c.retry.Cap(status.RetryAfter), true
		}
		return c.retry.Backoff(attempt), true
	case errors.As(err, &netErr) && netErr.Timeout():
		return c.retry.Backoff(attempt), true
	}
	return 0, false
}
