// Package openai implements domain.ChatCompleter against an
// OpenAI-compatible chat completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kanba/internal/app"
	"kanba/internal/domain"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 1000
	requestTimeout   = 30 * time.Second
	maxResponseBytes = 1 << 20
)

// Client calls the chat completions API.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
}

// New creates a Client. Empty baseURL and model fall back to the public
// OpenAI endpoint and gpt-4o-mini.
func New(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

var _ domain.ChatCompleter = (*Client)(nil)

type completionRequest struct {
	Model     string               `json:"model"`
	Messages  []domain.ChatMessage `json:"messages"`
	MaxTokens int                  `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends messages and returns the first choice's content.
// Transport failures and unreadable bodies wrap app.ErrChatUnavailable;
// non-2xx answers are returned as *domain.UpstreamError.
func (c *Client) Complete(ctx context.Context, apiKey string, messages []domain.ChatMessage) (string, error) {
	body, err := json.Marshal(completionRequest{Model: c.model, Messages: messages, MaxTokens: defaultMaxTokens})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", app.ErrChatUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", app.ErrChatUnavailable, err)
	}

	var out completionResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("OpenAI API error (%d)", resp.StatusCode)
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", &domain.UpstreamError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: decode body: %w", app.ErrChatUnavailable, decodeErr)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "No response", nil
	}
	return out.Choices[0].Message.Content, nil
}
