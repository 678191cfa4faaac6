// Package mail sends transactional email through the provider's HTTP API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hatchline/recruitpulse/candidate"
	"github.com/hatchline/recruitpulse/errors"
	"github.com/hatchline/recruitpulse/internal/httpclient"
)

// Config holds the email provider connection settings.
type Config struct {
	BaseURL     string
	APIKey      string
	FromAddress string
}

// Client sends email through the transactional provider.
type Client struct {
	config Config
	http   *httpclient.SaferClient
	logger *zap.SugaredLogger
}

// NewClient creates an email client with SSRF protection.
func NewClient(config Config, logger *zap.SugaredLogger) *Client {
	return NewClientWithHTTP(config, httpclient.NewSaferClient(30*time.Second), logger)
}

// NewClientWithHTTP creates an email client over the given HTTP client.
func NewClientWithHTTP(config Config, http *httpclient.SaferClient, logger *zap.SugaredLogger) *Client {
	return &Client{config: config, http: http, logger: logger}
}

// AssessmentLink builds a candidate-specific assessment URL with a fresh
// access token.
func AssessmentLink(baseURL string, candidateID int64) string {
	return fmt.Sprintf("%s?candidate=%d&token=%s", baseURL, candidateID, uuid.NewString())
}

// SendAssessmentLink emails the assessment invitation to the candidate's
// best known address and returns the link that was sent.
func (c *Client) SendAssessmentLink(ctx context.Context, cand *candidate.Candidate, link string) error {
	to := cand.ContactEmail()
	if to == "" {
		return errors.Newf("candidate %d has no usable email address", cand.ID)
	}

	payload := map[string]any{
		"from":    c.config.FromAddress,
		"to":      []string{to},
		"subject": "Your Technical Assessment Invitation",
		"html":    assessmentEmailBody(cand, link),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to encode email payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build email request")
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "email request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Newf("email send failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	c.logger.Infow("assessment email sent", "candidate_id", cand.ID, "to", to)
	return nil
}

func assessmentEmailBody(cand *candidate.Candidate, link string) string {
	date := cand.AssessmentDate
	if date == "" {
		date = "To be confirmed"
	}
	timeSlot := cand.AssessmentTime
	if timeSlot == "" {
		timeSlot = "To be confirmed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hi <strong>%s</strong>,</p>", cand.Name)
	b.WriteString("<p>Congratulations on qualifying for the next round. Your technical assessment is ready.</p>")
	fmt.Fprintf(&b, "<p><strong>Date:</strong> %s<br><strong>Time:</strong> %s<br><strong>Duration:</strong> 30-45 minutes<br><strong>Format:</strong> Remote, laptop or desktop required</p>", date, timeSlot)
	b.WriteString("<ul><li>Use a laptop or desktop computer</li><li>Ensure a stable internet connection</li><li>Find a quiet environment</li><li>Keep valid ID proof ready</li></ul>")
	fmt.Fprintf(&b, `<p><a href="%s">Start Assessment</a></p>`, link)
	b.WriteString("<p>Best regards,<br>Recruitment Team</p>")
	return b.String()
}
