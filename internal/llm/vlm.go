package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pavelanni/papergen/internal/config"
)

// VLMClient calls a local vision-language model through Ollama's native
// generate API, which accepts base64 images alongside the prompt.
type VLMClient struct {
	cfg    config.VLM
	client *http.Client
}

// NewVLM creates a new vision model client.
func NewVLM(cfg config.VLM) *VLMClient {
	return &VLMClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type vlmRequest struct {
	Model   string     `json:"model"`
	Prompt  string     `json:"prompt"`
	Images  []string   `json:"images,omitempty"`
	Stream  bool       `json:"stream"`
	Options vlmOptions `json:"options"`
}

type vlmOptions struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type vlmResponse struct {
	Response string `json:"response"`
	Text     string `json:"text"`
	Content  string `json:"content"`
}

// GenerateMultimodal sends the prompt plus images to the vision model and
// returns the raw completion text. Transport failures are retried with a
// fixed delay up to the configured attempt count.
func (c *VLMClient) GenerateMultimodal(ctx context.Context, prompt string, images [][]byte) (string, error) {
	encoded := make([]string, len(images))
	for i, img := range images {
		encoded[i] = base64.StdEncoding.EncodeToString(img)
	}

	body, err := json.Marshal(vlmRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Images: encoded,
		Stream: false,
		Options: vlmOptions{
			Temperature: c.cfg.Temperature,
			NumPredict:  c.cfg.MaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	return withRetry(ctx, c.cfg.MaxRetries, c.cfg.RetryDelay, func(ctx context.Context) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
		return c.call(callCtx, body)
	})
}

func (c *VLMClient) call(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vlm api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var out vlmResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	switch {
	case out.Response != "":
		return out.Response, nil
	case out.Text != "":
		return out.Text, nil
	case out.Content != "":
		return out.Content, nil
	}
	return "", fmt.Errorf("vlm response has no text field")
}

// Ping verifies the vision endpoint is reachable.
func (c *VLMClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("VLM health check: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("VLM health check returned status %d", resp.StatusCode)
	}
	return nil
}
