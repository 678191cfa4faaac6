// Package candidate holds the candidate state machine and its persistence.
//
// A candidate moves through the call lifecycle entirely via status strings;
// every transition is a targeted field-level update so a queue tick and a
// webhook delivery racing on the same row never clobber each other's columns.
package candidate

import "time"

// Lifecycle statuses. These are stored verbatim in candidates.status and
// surfaced through the API, so they are operator-facing strings rather than
// enum codes.
const (
	StatusNew                = "New"
	StatusCallingScreening   = "Calling - Screening"
	StatusCallbackScheduled  = "Callback Scheduled"
	StatusQualified          = "Qualified - Assessment Scheduling Queued"
	StatusRejectedLowScore   = "Rejected - Low Score"
	StatusManualReview       = "Manual Review Required - No Score"
	StatusManualReviewStale  = "Manual Review Required - No Webhook"
	StatusFollowUpScheduled  = "Follow-Up Scheduled"
	StatusNoResponse         = "No Response - Max Attempts"
	StatusCallingScheduling  = "Calling - Assessment Scheduling"
	StatusAssessmentAwaiting = "Assessment Scheduled - Awaiting Manual Link"
	StatusSchedulingPending  = "Scheduling Call Completed - Pending Confirmation"
	StatusSchedulingFailed   = "Scheduling Call Failed - Manual Intervention Required"
	StatusAssessmentLinkSent = "Assessment Link Sent"
)

// Call statuses track the most recent call attempt, independent of the
// lifecycle status.
const (
	CallStatusPending    = "Pending"
	CallStatusInProgress = "In Progress"
	CallStatusCompleted  = "Completed"
	CallStatusFailed     = "Failed"
)

// Calling reports whether status is one of the in-flight call statuses, i.e.
// a terminal webhook is still expected for this candidate.
func Calling(status string) bool {
	return status == StatusCallingScreening || status == StatusCallingScheduling
}

// Candidate is one row of the candidates table. Nullable timestamps are
// pointers; nullable text columns round-trip as empty strings.
type Candidate struct {
	ID int64

	// Resume-derived profile
	Name              string
	Phone             string
	Email             string
	VerifiedEmail     string
	Skills            string
	SkillsMatched     string
	YearsOfExperience string
	CurrentCompany    string
	NoticePeriod      string

	// Call lifecycle
	CallStatus     string
	Status         string
	FailedAttempts int
	FollowUpTime   *time.Time

	// Callback requests surfaced from the screening transcript
	CallbackRequested     bool
	CallbackScheduledTime *time.Time
	CallbackReason        string
	CallbackAttempts      int
	LastCallbackAttempt   *time.Time

	// Provider run ids and raw transcripts
	ScreeningRunID       string
	ScreeningTranscript  string
	SchedulingRunID      string
	SchedulingTranscript string

	// Scoring
	Scores                    Scorecard
	OverallQualificationScore *float64
	QualificationBreakdown    string
	ConversationSummary       string

	// Assessment scheduling
	EmailVerified      bool
	AssessmentDate     string
	AssessmentTime     string
	AssessmentLink     string
	AssessmentLinkSent bool

	BatchID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactEmail returns the address assessment mail should go to, preferring
// the email verified on the scheduling call over the parsed resume email.
func (c *Candidate) ContactEmail() string {
	if c.VerifiedEmail != "" {
		return c.VerifiedEmail
	}
	return c.Email
}
