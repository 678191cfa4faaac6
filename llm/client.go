// Package llm wraps the chat-completions API used for resume parsing and
// transcript scoring. Every call demands strict JSON back and tolerates the
// model wrapping it in markdown fences anyway.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hatchline/recruitpulse/errors"
	"github.com/hatchline/recruitpulse/internal/httpclient"
)

// Config holds provider connection settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client calls the chat-completions endpoint.
type Client struct {
	config Config
	http   *httpclient.SaferClient
	logger *zap.SugaredLogger
}

// NewClient creates a client with a hardened HTTP transport
func NewClient(config Config, logger *zap.SugaredLogger) *Client {
	return NewClientWithHTTP(config, httpclient.NewSaferClient(60*time.Second), logger)
}

// NewClientWithHTTP creates a client with an injected transport (for testing)
func NewClientWithHTTP(config Config, http *httpclient.SaferClient, logger *zap.SugaredLogger) *Client {
	return &Client{config: config, http: http, logger: logger}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// complete runs one system+user exchange and returns the raw model output.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.config.Model,
		Messages:    []chatMessage{{Role: "system", Content: system}, {Role: "user", Content: user}},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal chat request")
	}

	url := strings.TrimSuffix(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "failed to build chat request")
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "chat completion request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read chat response")
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.Wrapf(err, "failed to decode chat response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		msg := "unknown error"
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", errors.Newf("chat completion failed with status %d: %s", resp.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", errors.New("empty chat completion response")
	}

	return parsed.Choices[0].Message.Content, nil
}

// decodeJSON strips markdown fences and unmarshals the model output.
func decodeJSON(raw string, v any) error {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```JSON", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return errors.Wrap(err, "model returned invalid JSON")
	}
	return nil
}
