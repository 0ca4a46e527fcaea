package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/richn23/student-voice/internal/config"
)

const (
	anthropicVersion = "2023-06-01"

	// Chat turns are deliberately short; summaries may ask for more but the
	// ceiling keeps a misbehaving caller from burning tokens.
	defaultMaxTokens = 256
	maxTokensCeiling = 1500
)

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = errors.New("generator: ANTHROPIC_API_KEY not configured")

// AnthropicClient calls the Anthropic Messages API over plain HTTP
type AnthropicClient struct {
	cfg    *config.AIConfig
	client *http.Client
}

// NewAnthropicClient creates a client from AI configuration
func NewAnthropicClient(cfg *config.AIConfig) *AnthropicClient {
	return &AnthropicClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

type anthropicRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate implements Generator
func (c *AnthropicClient) Generate(ctx context.Context, req Request) (string, error) {
	if !c.cfg.IsEnabled() {
		return "", ErrNotConfigured
	}

	model := c.cfg.Models.Default
	if req.Fast {
		model = c.cfg.Models.Fast
	}

	tokens := req.MaxTokens
	if tokens <= 0 {
		tokens = defaultMaxTokens
	}
	if tokens > maxTokensCeiling {
		tokens = maxTokensCeiling
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     model,
		MaxTokens: tokens,
		System:    req.System,
		Messages:  req.Messages,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("generator: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("generator: reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generator: backend returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("generator: decoding response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("generator: %s: %s", parsed.Error.Type, parsed.Error.Message)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", errors.New("generator: empty response")
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
