// Package llm provides clients for the local text and vision model
// endpoints. The text client speaks the OpenAI-compatible API that Ollama
// exposes; the vision client uses Ollama's native generate API because the
// compatible API does not carry images.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/papergen/internal/config"
)

// Client wraps an OpenAI-compatible API client for text generation.
type Client struct {
	api *openai.Client
	cfg config.LLM
}

// New creates a new text model client.
func New(cfg config.LLM) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api: openai.NewClientWithConfig(apiCfg),
		cfg: cfg,
	}
}

// Generate sends the prompt to the model and returns the raw completion
// text. Transport failures are retried with a fixed delay up to the
// configured attempt count.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return withRetry(ctx, c.cfg.MaxRetries, c.cfg.RetryDelay, func(ctx context.Context) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: c.cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: c.cfg.Temperature,
			MaxTokens:   c.cfg.MaxTokens,
		})
		if err != nil {
			return "", fmt.Errorf("LLM API call: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("LLM returned no choices")
		}
		return resp.Choices[0].Message.Content, nil
	})
}

// Ping verifies the endpoint is reachable and serving models.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	return nil
}

// withRetry runs fn up to attempts times with a fixed delay between tries.
// It returns the first success or the last error.
func withRetry(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) (string, error)) (string, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt < attempts {
			slog.Warn("model call failed, retrying",
				"attempt", attempt, "max_attempts", attempts, "delay", delay, "error", err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("model call failed after %d attempts: %w", attempts, lastErr)
}
