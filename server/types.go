package server

import (
	"time"

	"github.com/hatchline/recruitpulse/candidate"
)

// CandidateResponse is the wire shape for candidate listings.
type CandidateResponse struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name"`
	Phone             string   `json:"phone"`
	Email             string   `json:"email,omitempty"`
	VerifiedEmail     string   `json:"verified_email,omitempty"`
	Skills            string   `json:"skills,omitempty"`
	SkillsMatched     string   `json:"skills_matched,omitempty"`
	YearsOfExperience string   `json:"years_of_experience,omitempty"`
	CurrentCompany    string   `json:"current_company,omitempty"`
	Status            string   `json:"status"`
	CallStatus        string   `json:"call_status,omitempty"`
	FailedAttempts    int      `json:"failed_attempts"`
	OverallScore      *float64 `json:"overall_score,omitempty"`
	AssessmentDate    string   `json:"assessment_date,omitempty"`
	AssessmentTime    string   `json:"assessment_time,omitempty"`
	AssessmentLink    string   `json:"assessment_link,omitempty"`
	BatchID           string   `json:"batch_id,omitempty"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
}

func toCandidateResponse(c *candidate.Candidate) CandidateResponse {
	return CandidateResponse{
		ID:                c.ID,
		Name:              c.Name,
		Phone:             c.Phone,
		Email:             c.Email,
		VerifiedEmail:     c.VerifiedEmail,
		Skills:            c.Skills,
		SkillsMatched:     c.SkillsMatched,
		YearsOfExperience: c.YearsOfExperience,
		CurrentCompany:    c.CurrentCompany,
		Status:            c.Status,
		CallStatus:        c.CallStatus,
		FailedAttempts:    c.FailedAttempts,
		OverallScore:      c.OverallQualificationScore,
		AssessmentDate:    c.AssessmentDate,
		AssessmentTime:    c.AssessmentTime,
		AssessmentLink:    c.AssessmentLink,
		BatchID:           c.BatchID,
		CreatedAt:         c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ListCandidatesResponse wraps a candidate listing with its count.
type ListCandidatesResponse struct {
	Candidates []CandidateResponse `json:"candidates"`
	Count      int                 `json:"count"`
}

// StatsResponse combines status buckets with the score distribution.
type StatsResponse struct {
	BatchID      string                       `json:"batch_id,omitempty"`
	Stats        *candidate.Stats             `json:"stats"`
	Distribution *candidate.ScoreDistribution `json:"score_distribution"`
}

// IngestRequest carries a batch of resume texts plus the role being hired
// for.
type IngestRequest struct {
	Resumes      []string               `json:"resumes"`
	Requirements candidate.Requirements `json:"requirements"`
}

// CallPendingResponse reports a bulk enqueue of never-called candidates.
type CallPendingResponse struct {
	Pending int `json:"pending"`
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}
