package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hatchline/recruitpulse/candidate"
)

// ScreeningAnalysis is the model's read of a screening call transcript.
type ScreeningAnalysis struct {
	CallbackRequested bool
	CallbackTimeText  string
	CallbackReason    string
	Scores            candidate.Scorecard
	NoticePeriod      string
	JobInterest       string
	Summary           string
	Recommendation    string
}

// HasScore reports whether the model produced any usable score. A zero
// scorecard routes the candidate to manual review.
func (a *ScreeningAnalysis) HasScore() bool {
	return a.Scores.Total() > 0
}

// BreakdownJSON renders the analysis detail stored alongside the scores.
func (a *ScreeningAnalysis) BreakdownJSON() string {
	detail := map[string]any{
		"notice_period_score":  a.Scores.NoticePeriod,
		"budget_score":         a.Scores.Budget,
		"location_score":       a.Scores.Location,
		"experience_score":     a.Scores.Experience,
		"technical_score":      a.Scores.Technical,
		"communication_score":  a.Scores.Communication,
		"stated_notice_period": a.NoticePeriod,
		"job_interest":         a.JobInterest,
		"recommendation":       a.Recommendation,
	}
	b, err := json.Marshal(detail)
	if err != nil {
		return "{}"
	}
	return string(b)
}

const screeningSystemPrompt = `You are an expert recruiter analyzing phone screening transcripts. Provide accurate, data-driven assessments. Return ONLY valid JSON.`

const screeningPromptTemplate = `Analyze this phone screening transcript against the job requirements and return ONLY this JSON structure (no markdown, no extra text):

{
  "callback_requested": <boolean: true if the candidate asked to be called back at another time>,
  "callback_time": "<the candidate's words about when to call back, or empty string>",
  "callback_reason": "<why they asked for a callback, or empty string>",
  "notice_period_score": <0-%d: how well their notice period fits the required %d days>,
  "budget_score": <0-%d: how well their expectations fit the %.0f-%.0f LPA budget>,
  "location_score": <0-%d: willingness to work from %s>,
  "experience_score": <0-%d: fit against %d-%d years required>,
  "technical_score": <0-%d: technical knowledge demonstrated in their answers>,
  "communication_score": <0-%d: clarity, coherence, professionalism>,
  "notice_period": "<their stated notice period, or empty string>",
  "job_interest": "<High/Medium/Low based on enthusiasm>",
  "summary": "<2-3 sentence summary of the conversation>",
  "recommendation": "<Proceed/Manual Review/Reject with brief reason>"
}

If the candidate requested a callback, set callback_requested true and leave every score at 0.
If the transcript is too short or empty to judge, leave every score at 0.

Candidate's listed skills: %s

Transcript:
%s`

// ScoreScreeningTranscript asks the model for a full scorecard plus callback
// intent. Failures return an error; the caller routes those to manual
// review rather than guessing.
func (c *Client) ScoreScreeningTranscript(ctx context.Context, transcript string, cand *candidate.Candidate, req candidate.Requirements) (*ScreeningAnalysis, error) {
	user := fmt.Sprintf(screeningPromptTemplate,
		candidate.MaxNoticePeriodScore, req.RequiredNoticePeriod,
		candidate.MaxBudgetScore, req.BudgetMinLPA, req.BudgetMaxLPA,
		candidate.MaxLocationScore, req.Location,
		candidate.MaxExperienceScore, req.MinExperience, req.MaxExperience,
		candidate.MaxTechnicalScore,
		candidate.MaxCommunicationScore,
		cand.Skills,
		transcript,
	)

	raw, err := c.complete(ctx, screeningSystemPrompt, user)
	if err != nil {
		return nil, err
	}

	var wire struct {
		CallbackRequested  bool   `json:"callback_requested"`
		CallbackTime       string `json:"callback_time"`
		CallbackReason     string `json:"callback_reason"`
		NoticePeriodScore  int    `json:"notice_period_score"`
		BudgetScore        int    `json:"budget_score"`
		LocationScore      int    `json:"location_score"`
		ExperienceScore    int    `json:"experience_score"`
		TechnicalScore     int    `json:"technical_score"`
		CommunicationScore int    `json:"communication_score"`
		NoticePeriod       string `json:"notice_period"`
		JobInterest        string `json:"job_interest"`
		Summary            string `json:"summary"`
		Recommendation     string `json:"recommendation"`
	}
	if err := decodeJSON(raw, &wire); err != nil {
		return nil, err
	}

	return &ScreeningAnalysis{
		CallbackRequested: wire.CallbackRequested,
		CallbackTimeText:  strings.TrimSpace(wire.CallbackTime),
		CallbackReason:    strings.TrimSpace(wire.CallbackReason),
		Scores: candidate.Scorecard{
			NoticePeriod:  wire.NoticePeriodScore,
			Budget:        wire.BudgetScore,
			Location:      wire.LocationScore,
			Experience:    wire.ExperienceScore,
			Technical:     wire.TechnicalScore,
			Communication: wire.CommunicationScore,
		}.Clamp(),
		NoticePeriod:   cleanField(wire.NoticePeriod),
		JobInterest:    cleanField(wire.JobInterest),
		Summary:        strings.TrimSpace(wire.Summary),
		Recommendation: strings.TrimSpace(wire.Recommendation),
	}, nil
}

// SchedulingAnalysis is the model's read of an assessment-scheduling call.
type SchedulingAnalysis struct {
	EmailVerified  bool
	VerifiedEmail  string
	AssessmentDate string
	AssessmentTime string
	Confirmed      bool
	Summary        string
}

const schedulingSystemPrompt = `You are analyzing an assessment scheduling call. Extract email verification and scheduling details. Return ONLY valid JSON.`

const schedulingPromptTemplate = `Analyze this scheduling call transcript and extract information. Return ONLY this JSON (no markdown):

{
  "email_verified": <boolean: true if the candidate confirmed their email>,
  "verified_email": "<email address if the candidate provided a new one, otherwise null>",
  "assessment_date": "<date in YYYY-MM-DD format if scheduled, otherwise null>",
  "assessment_time": "<time in HH:MM format if scheduled, otherwise null>",
  "candidate_confirmed": <boolean: true if the candidate confirmed the slot>,
  "summary": "<brief summary of the call outcome>"
}

Extract dates and times carefully. "Tomorrow" means the next calendar day,
weekday names mean the next occurrence, and "3 PM" style times should be
converted to 24-hour HH:MM.

Transcript:
%s`

// ScoreSchedulingTranscript extracts email verification and the agreed
// assessment slot from a scheduling call transcript.
func (c *Client) ScoreSchedulingTranscript(ctx context.Context, transcript string) (*SchedulingAnalysis, error) {
	raw, err := c.complete(ctx, schedulingSystemPrompt, fmt.Sprintf(schedulingPromptTemplate, transcript))
	if err != nil {
		return nil, err
	}

	var wire struct {
		EmailVerified      bool   `json:"email_verified"`
		VerifiedEmail      string `json:"verified_email"`
		AssessmentDate     string `json:"assessment_date"`
		AssessmentTime     string `json:"assessment_time"`
		CandidateConfirmed bool   `json:"candidate_confirmed"`
		Summary            string `json:"summary"`
	}
	if err := decodeJSON(raw, &wire); err != nil {
		return nil, err
	}

	return &SchedulingAnalysis{
		EmailVerified:  wire.EmailVerified,
		VerifiedEmail:  cleanField(wire.VerifiedEmail),
		AssessmentDate: cleanField(wire.AssessmentDate),
		AssessmentTime: cleanField(wire.AssessmentTime),
		Confirmed:      wire.CandidateConfirmed,
		Summary:        strings.TrimSpace(wire.Summary),
	}, nil
}
