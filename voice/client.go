// Package voice places outbound phone calls through the conversational
// calling provider's HTTP API.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hatchline/recruitpulse/errors"
	"github.com/hatchline/recruitpulse/internal/httpclient"
)

// Config holds the calling provider connection settings.
type Config struct {
	BaseURL           string
	APIKey            string
	AgentID           string
	FromNumber        string
	RequestsPerMinute int
}

// Client talks to the calling provider. All calls go through a single
// shared agent whose system prompt is rewritten before each dial.
type Client struct {
	config  Config
	http    *httpclient.SaferClient
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
}

// NewClient creates a provider client with SSRF protection and request
// pacing derived from the configured per-minute budget.
func NewClient(config Config, logger *zap.SugaredLogger) *Client {
	return NewClientWithHTTP(config, httpclient.NewSaferClient(30*time.Second), logger)
}

// NewClientWithHTTP creates a provider client over the given HTTP client.
func NewClientWithHTTP(config Config, http *httpclient.SaferClient, logger *zap.SugaredLogger) *Client {
	perMinute := config.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	return &Client{
		config:  config,
		http:    http,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		logger:  logger,
	}
}

// UpdateAgentPrompt rewrites the shared agent's system prompt. The provider
// keeps one prompt per agent, so this must run before every dial.
func (c *Client) UpdateAgentPrompt(ctx context.Context, promptText string) error {
	body := map[string]any{
		"agent_prompts": map[string]any{
			"task_1": map[string]any{
				"system_prompt": promptText,
			},
		},
	}

	resp, err := c.request(ctx, http.MethodPatch, "/agent/"+c.config.AgentID, body)
	if err != nil {
		return errors.Wrap(err, "failed to update agent prompt")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Newf("agent prompt update failed with status %d: %s", resp.StatusCode, readBody(resp.Body))
	}
	return nil
}

// PlaceCall updates the agent prompt and dials the candidate. It returns the
// provider's run id, which later webhook events carry back.
func (c *Client) PlaceCall(ctx context.Context, phone, promptText string) (string, error) {
	if err := c.UpdateAgentPrompt(ctx, promptText); err != nil {
		return "", err
	}

	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	body := map[string]any{
		"agent_id":               c.config.AgentID,
		"recipient_phone_number": phone,
		"from_phone_number":      c.config.FromNumber,
	}

	resp, err := c.request(ctx, http.MethodPost, "/call", body)
	if err != nil {
		return "", errors.Wrap(err, "failed to place call")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read call response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Newf("call request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	runID := extractRunID(raw)
	if runID == "" {
		c.logger.Warnw("call accepted but response carried no run id", "phone", phone, "body", string(raw))
	}

	c.logger.Infow("call placed", "phone", phone, "run_id", runID)
	return runID, nil
}

// request paces, builds, and sends an authenticated JSON request.
func (c *Client) request(ctx context.Context, method, path string, body any) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter wait failed")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode request body")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	return c.http.Do(req)
}

// extractRunID pulls the call identifier out of the provider response.
// Different provider versions name the field differently.
func extractRunID(raw []byte) string {
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ""
	}
	for _, key := range []string{"run_id", "execution_id", "call_id", "callId", "id"} {
		if v, ok := parsed[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func readBody(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
