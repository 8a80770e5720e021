package ai

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

	"github.com/askdrhq/askdr/internal/pkg/env"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "anthropic/claude-3-haiku"
)

// ErrNotConfigured is returned when no API key is present.
var ErrNotConfigured = errors.New("ai: api key not configured")

// Message is one turn in a chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client talks to an OpenRouter-compatible chat completions API.
type Client struct {
	APIKey  string
	BaseURL string
	Model   string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a client from OPENROUTER_* environment variables.
func NewClientFromEnv() *Client {
	return &Client{
		APIKey:  strings.TrimSpace(env.GetEnv("OPENROUTER_API_KEY", "")),
		BaseURL: strings.TrimRight(env.GetEnv("OPENROUTER_BASE_URL", defaultBaseURL), "/"),
		Model:   strings.TrimSpace(env.GetEnv("OPENROUTER_MODEL", defaultModel)),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends the conversation and returns the assistant's reply text.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if c.APIKey == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(completionRequest{
		Model:    c.Model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("ai: invalid response (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := "upstream error"
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("ai: %s (%d)", msg, resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("ai: empty completion")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// CompleteJSON runs Complete and unmarshals the reply into out. Models often
// wrap JSON in markdown fences, so those are stripped first.
func (c *Client) CompleteJSON(ctx context.Context, messages []Message, out interface{}) error {
	reply, err := c.Complete(ctx, messages)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(StripJSONFences(reply)), out)
}

// StripJSONFences removes a surrounding ```json ... ``` block if present.
func StripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
