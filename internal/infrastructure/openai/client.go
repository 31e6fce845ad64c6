// Package openai provides HTTP clients for the OpenAI embeddings and
// chat completion endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shakespeare-rag-api/internal/config"
	apperrors "shakespeare-rag-api/pkg/errors"
	"shakespeare-rag-api/pkg/logger"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client is the shared transport under both provider clients. It owns
// authentication and the bounded-backoff retry loop.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates the shared transport.
func NewClient(cfg config.OpenAIConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{},
	}
}

type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.status, e.body)
}

// retryable reports whether a provider response warrants another
// attempt: rate limiting and server-side failures are transient,
// anything else is not.
func retryable(err error) bool {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.status == http.StatusTooManyRequests || apiErr.status >= 500
	}
	// Network-level failures (connection refused, per-attempt timeouts)
	// come back as transport errors and are worth retrying. Caller
	// cancellation is caught by the backoff select before the next
	// attempt.
	return true
}

// postJSON sends one request with retries per the given policy. out is
// decoded from the response body on success.
func (c *Client) postJSON(ctx context.Context, path string, timeout time.Duration, retry config.RetryConfig, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	attempts := retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := retry.Initial
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = c.doOnce(ctx, path, timeout, payload, out)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) || attempt == attempts {
			break
		}
		logger.Warn(ctx, "provider call failed, retrying",
			"path", path, "attempt", attempt, "backoff", backoff.String(), "error", lastErr.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * multiplierOrDefault(retry.Multiplier))
		if retry.Max > 0 && backoff > retry.Max {
			backoff = retry.Max
		}
	}
	return lastErr
}

func multiplierOrDefault(m float64) float64 {
	if m <= 1 {
		return 2
	}
	return m
}

func (c *Client) doOnce(ctx context.Context, path string, timeout time.Duration, payload []byte, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &apiError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Reachable probes the provider for readiness reporting. Any response
// below 500 counts as reachable; auth failures still prove the
// endpoint is up.
func (c *Client) Reachable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeServiceUnavailable, "provider unreachable")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return apperrors.Newf(apperrors.CodeServiceUnavailable, "provider returned status %d", resp.StatusCode)
	}
	return nil
}
