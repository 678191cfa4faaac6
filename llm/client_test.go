package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hatchline/recruitpulse/candidate"
	"github.com/hatchline/recruitpulse/internal/httpclient"
)

// chatServer returns a test server that always answers with the given model
// output wrapped in a chat-completions envelope.
func chatServer(t *testing.T, content string) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)

	client := NewClientWithHTTP(Config{
		BaseURL:     server.URL,
		APIKey:      "test-key",
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   1000,
	}, httpclient.WrapClient(server.Client()), zap.NewNop().Sugar())

	return server, client
}

func TestParseResume(t *testing.T) {
	_, client := chatServer(t, "```json\n"+`{
		"name": "Asha Verma",
		"phone": "+919876543210",
		"email": "asha@example.com",
		"skills": "Go, PostgreSQL, Kubernetes",
		"years_of_experience": 5,
		"current_company": "Acme Corp",
		"notice_period": "Not specified"
	}`+"\n```")

	profile, err := client.ParseResume(context.Background(), "resume text here")
	require.NoError(t, err)
	assert.Equal(t, "Asha Verma", profile.Name)
	assert.Equal(t, "+919876543210", profile.Phone)
	assert.Equal(t, "5", profile.YearsOfExperience)
	assert.Equal(t, "Acme Corp", profile.CurrentCompany)
	assert.Empty(t, profile.NoticePeriod)
}

func TestScoreScreeningTranscript(t *testing.T) {
	_, client := chatServer(t, `{
		"callback_requested": false,
		"notice_period_score": 12,
		"budget_score": 10,
		"location_score": 8,
		"experience_score": 15,
		"technical_score": 25,
		"communication_score": 7,
		"notice_period": "30 days",
		"job_interest": "High",
		"summary": "Strong candidate with solid fundamentals.",
		"recommendation": "Proceed"
	}`)

	cand := &candidate.Candidate{Name: "Asha", Skills: "Go, SQL"}
	analysis, err := client.ScoreScreeningTranscript(context.Background(), "agent: hello...", cand, candidate.Requirements{})
	require.NoError(t, err)

	assert.False(t, analysis.CallbackRequested)
	assert.True(t, analysis.HasScore())
	assert.Equal(t, 77, analysis.Scores.Total())
	assert.Equal(t, "30 days", analysis.NoticePeriod)
	assert.Contains(t, analysis.BreakdownJSON(), `"technical_score":25`)
}

func TestScoreScreeningTranscriptClampsScores(t *testing.T) {
	_, client := chatServer(t, `{
		"callback_requested": false,
		"technical_score": 500,
		"communication_score": -3
	}`)

	analysis, err := client.ScoreScreeningTranscript(context.Background(), "t", &candidate.Candidate{}, candidate.Requirements{})
	require.NoError(t, err)
	assert.Equal(t, candidate.MaxTechnicalScore, analysis.Scores.Technical)
	assert.Zero(t, analysis.Scores.Communication)
}

func TestScoreScreeningTranscriptCallbackRoute(t *testing.T) {
	_, client := chatServer(t, `{
		"callback_requested": true,
		"callback_time": "tomorrow morning",
		"callback_reason": "Candidate was in a meeting"
	}`)

	analysis, err := client.ScoreScreeningTranscript(context.Background(), "t", &candidate.Candidate{}, candidate.Requirements{})
	require.NoError(t, err)
	assert.True(t, analysis.CallbackRequested)
	assert.Equal(t, "tomorrow morning", analysis.CallbackTimeText)
	assert.False(t, analysis.HasScore())
}

func TestScoreSchedulingTranscript(t *testing.T) {
	_, client := chatServer(t, `{
		"email_verified": true,
		"verified_email": "asha.new@example.com",
		"assessment_date": "2026-03-05",
		"assessment_time": "17:00",
		"candidate_confirmed": true,
		"summary": "Slot confirmed."
	}`)

	analysis, err := client.ScoreSchedulingTranscript(context.Background(), "agent: hello...")
	require.NoError(t, err)
	assert.True(t, analysis.EmailVerified)
	assert.True(t, analysis.Confirmed)
	assert.Equal(t, "asha.new@example.com", analysis.VerifiedEmail)
	assert.Equal(t, "2026-03-05", analysis.AssessmentDate)
	assert.Equal(t, "17:00", analysis.AssessmentTime)
}

func TestCompleteInvalidJSON(t *testing.T) {
	_, client := chatServer(t, "I'm sorry, I can't help with that.")

	_, err := client.ParseResume(context.Background(), "resume")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestCompleteHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited"},
		})
	}))
	defer server.Close()

	client := NewClientWithHTTP(Config{BaseURL: server.URL, APIKey: "k", Model: "m"},
		httpclient.WrapClient(server.Client()), zap.NewNop().Sugar())

	_, err := client.ParseResume(context.Background(), "resume")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
