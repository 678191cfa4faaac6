package llm

import (
	"context"
	"fmt"
	"strings"
)

// Profile is the structured candidate data extracted from a resume.
type Profile struct {
	Name              string
	Phone             string
	Email             string
	Skills            string
	YearsOfExperience string
	CurrentCompany    string
	NoticePeriod      string
}

const parseSystemPrompt = `You are a resume parser. Extract candidate information and return ONLY valid JSON with no additional text or markdown.`

const parsePromptTemplate = `Extract the following information from this resume and return ONLY valid JSON:

{
  "name": "Full name of the candidate (look at the very top of the resume)",
  "phone": "Phone number with country code (format: +91XXXXXXXXXX)",
  "email": "Email address",
  "skills": "Comma-separated list of ALL technical skills mentioned",
  "years_of_experience": "Total years as a number (if fresher or no experience, put 0)",
  "current_company": "Current or most recent company name",
  "notice_period": "Notice period if mentioned, otherwise 'Not specified'"
}

Resume text:
%s`

// maxResumeChars bounds how much resume text goes to the model.
const maxResumeChars = 4000

// ParseResume extracts a structured profile from raw resume text. Missing
// fields come back empty, not as an error; only transport and JSON failures
// are fatal.
func (c *Client) ParseResume(ctx context.Context, resumeText string) (*Profile, error) {
	text := resumeText
	if len(text) > maxResumeChars {
		text = text[:maxResumeChars]
	}

	raw, err := c.complete(ctx, parseSystemPrompt, fmt.Sprintf(parsePromptTemplate, text))
	if err != nil {
		return nil, err
	}

	// years_of_experience comes back as a bare number or a string
	// depending on the model's mood
	var wire struct {
		Name              string `json:"name"`
		Phone             string `json:"phone"`
		Email             string `json:"email"`
		Skills            string `json:"skills"`
		YearsOfExperience any    `json:"years_of_experience"`
		CurrentCompany    string `json:"current_company"`
		NoticePeriod      string `json:"notice_period"`
	}
	if err := decodeJSON(raw, &wire); err != nil {
		return nil, err
	}

	profile := &Profile{
		Name:           cleanField(wire.Name),
		Phone:          cleanField(wire.Phone),
		Email:          cleanField(wire.Email),
		Skills:         cleanField(wire.Skills),
		CurrentCompany: cleanField(wire.CurrentCompany),
		NoticePeriod:   cleanField(wire.NoticePeriod),
	}
	if wire.YearsOfExperience != nil {
		profile.YearsOfExperience = cleanField(fmt.Sprintf("%v", wire.YearsOfExperience))
	}

	return profile, nil
}

// cleanField normalizes the sentinel strings models emit for absent data.
func cleanField(s string) string {
	trimmed := strings.TrimSpace(s)
	switch strings.ToLower(trimmed) {
	case "not available", "not specified", "n/a", "null", "none", "unknown":
		return ""
	}
	return trimmed
}
