package openai

import (
	"context"
	"strings"
	"time"

	"shakespeare-rag-api/internal/config"
	apperrors "shakespeare-rag-api/pkg/errors"
	"shakespeare-rag-api/pkg/metrics"
)

// ChatClient calls the chat completions endpoint.
type ChatClient struct {
	client      *Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	retry       config.RetryConfig
}

// NewChatClient creates a ChatClient.
func NewChatClient(client *Client, cfg config.LLMConfig) *ChatClient {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &ChatClient{
		client:      client,
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		retry:       cfg.Retry,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete generates a reply for one system/user message pair.
// Exhausted retries surface as a generation_unavailable error.
func (c *ChatClient) Complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	var resp chatResponse
	err := c.client.postJSON(ctx, "/chat/completions", c.timeout, c.retry, &chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}, &resp)
	metrics.GenerationCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerationCallsTotal.WithLabelValues("error").Inc()
		return "", apperrors.Wrap(err, apperrors.CodeGenerationUnavailable, "generation provider failed")
	}
	metrics.GenerationCallsTotal.WithLabelValues("ok").Inc()
	metrics.GenerationTokensUsed.Add(float64(resp.Usage.TotalTokens))

	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.CodeGenerationUnavailable, "generation returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", apperrors.New(apperrors.CodeGenerationUnavailable, "generation returned empty content")
	}
	return text, nil
}

// Reachable probes the provider endpoint for readiness checks.
func (c *ChatClient) Reachable(ctx context.Context) error {
	return c.client.Reachable(ctx)
}
