package candidate

import (
	"database/sql"
	"strings"
	"time"

	"github.com/hatchline/recruitpulse/errors"
)

// ErrNotFound reports a candidate id with no row behind it.
var ErrNotFound = errors.New("candidate not found")

// Store handles persistence of candidates
type Store struct {
	db *sql.DB
}

// NewStore creates a new candidate store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const candidateColumns = `
	id, name, phone, email, verified_email, skills, skills_matched,
	years_of_experience, current_company, notice_period,
	call_status, status, failed_attempts, follow_up_time,
	callback_requested, callback_scheduled_time, callback_reason,
	callback_attempts, last_callback_attempt,
	screening_run_id, screening_transcript, scheduling_run_id, scheduling_transcript,
	notice_period_score, budget_score, location_score,
	experience_score, technical_score, communication_score,
	overall_qualification_score, qualification_breakdown, conversation_summary,
	email_verified, assessment_date, assessment_time, assessment_link, assessment_link_sent,
	batch_id, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row scanner) (*Candidate, error) {
	var c Candidate
	var email, verifiedEmail, skills, skillsMatched, yoe, company, notice sql.NullString
	var followUp, callbackAt, lastCallback sql.NullTime
	var callbackReason, screeningRun, screeningTranscript sql.NullString
	var schedulingRun, schedulingTranscript sql.NullString
	var overall sql.NullFloat64
	var breakdown, summary, assessDate, assessTime, assessLink, batchID sql.NullString

	err := row.Scan(
		&c.ID, &c.Name, &c.Phone, &email, &verifiedEmail, &skills, &skillsMatched,
		&yoe, &company, &notice,
		&c.CallStatus, &c.Status, &c.FailedAttempts, &followUp,
		&c.CallbackRequested, &callbackAt, &callbackReason,
		&c.CallbackAttempts, &lastCallback,
		&screeningRun, &screeningTranscript, &schedulingRun, &schedulingTranscript,
		&c.Scores.NoticePeriod, &c.Scores.Budget, &c.Scores.Location,
		&c.Scores.Experience, &c.Scores.Technical, &c.Scores.Communication,
		&overall, &breakdown, &summary,
		&c.EmailVerified, &assessDate, &assessTime, &assessLink, &c.AssessmentLinkSent,
		&batchID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Email = email.String
	c.VerifiedEmail = verifiedEmail.String
	c.Skills = skills.String
	c.SkillsMatched = skillsMatched.String
	c.YearsOfExperience = yoe.String
	c.CurrentCompany = company.String
	c.NoticePeriod = notice.String
	c.CallbackReason = callbackReason.String
	c.ScreeningRunID = screeningRun.String
	c.ScreeningTranscript = screeningTranscript.String
	c.SchedulingRunID = schedulingRun.String
	c.SchedulingTranscript = schedulingTranscript.String
	c.QualificationBreakdown = breakdown.String
	c.ConversationSummary = summary.String
	c.AssessmentDate = assessDate.String
	c.AssessmentTime = assessTime.String
	c.AssessmentLink = assessLink.String
	c.BatchID = batchID.String
	if followUp.Valid {
		c.FollowUpTime = &followUp.Time
	}
	if callbackAt.Valid {
		c.CallbackScheduledTime = &callbackAt.Time
	}
	if lastCallback.Valid {
		c.LastCallbackAttempt = &lastCallback.Time
	}
	if overall.Valid {
		c.OverallQualificationScore = &overall.Float64
	}

	return &c, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new candidate with the resume-derived profile. Status
// starts at New; everything else takes table defaults.
func (s *Store) Create(c *Candidate) error {
	query := `
		INSERT INTO candidates (
			name, phone, email, skills, skills_matched,
			years_of_experience, current_company, notice_period, batch_id, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		c.Name,
		c.Phone,
		nullable(c.Email),
		nullable(c.Skills),
		nullable(c.SkillsMatched),
		nullable(c.YearsOfExperience),
		nullable(c.CurrentCompany),
		nullable(c.NoticePeriod),
		nullable(c.BatchID),
		StatusNew,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create candidate")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to get candidate id")
	}
	c.ID = id
	c.Status = StatusNew
	c.CallStatus = CallStatusPending

	return nil
}

// FindByID retrieves a candidate by ID
func (s *Store) FindByID(id int64) (*Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = ?`

	c, err := scanCandidate(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "id %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get candidate")
	}
	return c, nil
}

// FindByPhone looks up a candidate by normalized phone. Returns nil when no
// candidate matches; absence is the dedup miss, not an error.
func (s *Store) FindByPhone(phone string) (*Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE phone = ?`

	c, err := scanCandidate(s.db.QueryRow(query, phone))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find candidate by phone")
	}
	return c, nil
}

// FindByRunID matches a provider run id against either call leg. Returns nil
// when no candidate owns the run id.
func (s *Store) FindByRunID(runID string) (*Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates
		WHERE screening_run_id = ? OR scheduling_run_id = ?`

	c, err := scanCandidate(s.db.QueryRow(query, runID, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find candidate by run id")
	}
	return c, nil
}

// Filter narrows List results.
type Filter struct {
	BatchID  string
	Status   string
	MinScore *float64
}

// List returns candidates matching the filter, newest first.
func (s *Store) List(f Filter) ([]*Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates`
	var conditions []string
	var args []any

	if f.BatchID != "" {
		conditions = append(conditions, "batch_id = ?")
		args = append(args, f.BatchID)
	}
	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, f.Status)
	}
	if f.MinScore != nil {
		conditions = append(conditions, "overall_qualification_score >= ?")
		args = append(args, *f.MinScore)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list candidates")
	}
	defer rows.Close()

	return scanCandidates(rows, "candidates")
}

// ListPending returns New candidates that are dialable: a usable phone and
// at least one matched skill.
func (s *Store) ListPending() ([]*Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates
		WHERE status = ?
		  AND phone IS NOT NULL AND phone != '' AND phone != 'Not available'
		  AND skills_matched IS NOT NULL AND skills_matched != ''
		ORDER BY created_at ASC`

	rows, err := s.db.Query(query, StatusNew)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending candidates")
	}
	defer rows.Close()

	return scanCandidates(rows, "pending candidates")
}

func scanCandidates(rows *sql.Rows, context string) ([]*Candidate, error) {
	var candidates []*Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan candidate")
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "error iterating %s", context)
	}
	return candidates, nil
}

// Updates carries a targeted field-level update: only non-nil fields are
// written, so concurrent writers touching disjoint columns never clobber
// each other.
type Updates struct {
	Status               *string
	CallStatus           *string
	FailedAttempts       *int
	FollowUpTime         *time.Time
	ScreeningRunID       *string
	ScreeningTranscript  *string
	SchedulingRunID      *string
	SchedulingTranscript *string
	ConversationSummary  *string
	EmailVerified        *bool
	VerifiedEmail        *string
	AssessmentDate       *string
	AssessmentTime       *string
	AssessmentLink       *string
	AssessmentLinkSent   *bool
}

// Update applies the non-nil fields of u to a single candidate row.
func (s *Store) Update(id int64, u Updates) error {
	var sets []string
	var args []any

	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if u.Status != nil {
		add("status", *u.Status)
	}
	if u.CallStatus != nil {
		add("call_status", *u.CallStatus)
	}
	if u.FailedAttempts != nil {
		add("failed_attempts", *u.FailedAttempts)
	}
	if u.FollowUpTime != nil {
		add("follow_up_time", *u.FollowUpTime)
	}
	if u.ScreeningRunID != nil {
		add("screening_run_id", *u.ScreeningRunID)
	}
	if u.ScreeningTranscript != nil {
		add("screening_transcript", *u.ScreeningTranscript)
	}
	if u.SchedulingRunID != nil {
		add("scheduling_run_id", *u.SchedulingRunID)
	}
	if u.SchedulingTranscript != nil {
		add("scheduling_transcript", *u.SchedulingTranscript)
	}
	if u.ConversationSummary != nil {
		add("conversation_summary", *u.ConversationSummary)
	}
	if u.EmailVerified != nil {
		add("email_verified", *u.EmailVerified)
	}
	if u.VerifiedEmail != nil {
		add("verified_email", *u.VerifiedEmail)
	}
	if u.AssessmentDate != nil {
		add("assessment_date", *u.AssessmentDate)
	}
	if u.AssessmentTime != nil {
		add("assessment_time", *u.AssessmentTime)
	}
	if u.AssessmentLink != nil {
		add("assessment_link", *u.AssessmentLink)
	}
	if u.AssessmentLinkSent != nil {
		add("assessment_link_sent", *u.AssessmentLinkSent)
	}

	if len(sets) == 0 {
		return errors.New("no fields to update")
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := `UPDATE candidates SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return errors.Wrap(err, "failed to update candidate")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return errors.Wrapf(ErrNotFound, "id %d", id)
	}

	return nil
}

// UpdateScores persists a clamped scorecard and its derived overall score in
// one write. The overall column is computed here and nowhere else.
func (s *Store) UpdateScores(id int64, sc Scorecard, breakdown string) error {
	sc = sc.Clamp()

	query := `
		UPDATE candidates
		SET notice_period_score = ?,
		    budget_score = ?,
		    location_score = ?,
		    experience_score = ?,
		    technical_score = ?,
		    communication_score = ?,
		    overall_qualification_score = ?,
		    qualification_breakdown = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := s.db.Exec(query,
		sc.NoticePeriod,
		sc.Budget,
		sc.Location,
		sc.Experience,
		sc.Technical,
		sc.Communication,
		sc.Overall(),
		nullable(breakdown),
		id,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update candidate scores")
	}

	return nil
}

// ScheduleCallback records a callback request from the screening call and
// resets the attempt counter for the new callback window.
func (s *Store) ScheduleCallback(id int64, at time.Time, reason string) error {
	query := `
		UPDATE candidates
		SET callback_requested = 1,
		    callback_scheduled_time = ?,
		    callback_reason = ?,
		    callback_attempts = 0,
		    status = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := s.db.Exec(query, at, reason, StatusCallbackScheduled, id)
	if err != nil {
		return errors.Wrap(err, "failed to schedule callback")
	}
	return nil
}

// RecordCallbackAttempt bumps the callback attempt counter and stamps the
// attempt time.
func (s *Store) RecordCallbackAttempt(id int64, now time.Time) error {
	query := `
		UPDATE candidates
		SET callback_attempts = callback_attempts + 1,
		    last_callback_attempt = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := s.db.Exec(query, now, id)
	if err != nil {
		return errors.Wrap(err, "failed to record callback attempt")
	}
	return nil
}

// ClearCallback resets the callback request once the redial went through, so
// the candidate no longer looks due to the scanner.
func (s *Store) ClearCallback(id int64) error {
	query := `
		UPDATE candidates
		SET callback_requested = 0,
		    callback_scheduled_time = NULL,
		    callback_attempts = 0,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := s.db.Exec(query, id)
	if err != nil {
		return errors.Wrap(err, "failed to clear callback")
	}
	return nil
}

// RescheduleCallback pushes an unreachable callback to a later slot.
func (s *Store) RescheduleCallback(id int64, at time.Time) error {
	query := `
		UPDATE candidates
		SET callback_scheduled_time = ?,
		    status = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := s.db.Exec(query, at, StatusCallbackScheduled, id)
	if err != nil {
		return errors.Wrap(err, "failed to reschedule callback")
	}
	return nil
}

// ListDueCallbacks returns callback-scheduled candidates whose slot has
// arrived and who still have attempts left.
func (s *Store) ListDueCallbacks(now time.Time, maxAttempts int) ([]*Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates
		WHERE status = ?
		  AND datetime(callback_scheduled_time) <= datetime(?)
		  AND callback_attempts < ?
		ORDER BY callback_scheduled_time ASC`

	rows, err := s.db.Query(query, StatusCallbackScheduled, now, maxAttempts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list due callbacks")
	}
	defer rows.Close()

	return scanCandidates(rows, "due callbacks")
}

// ListNeedingFollowUp returns follow-up candidates whose slot has arrived
// and who have not exhausted their call attempts.
func (s *Store) ListNeedingFollowUp(now time.Time, maxAttempts int) ([]*Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates
		WHERE status = ?
		  AND datetime(follow_up_time) <= datetime(?)
		  AND failed_attempts < ?
		ORDER BY follow_up_time ASC`

	rows, err := s.db.Query(query, StatusFollowUpScheduled, now, maxAttempts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list follow-ups")
	}
	defer rows.Close()

	return scanCandidates(rows, "follow-ups")
}

// ListStuckInCalling returns candidates left in an in-flight call status
// with no row activity since the cutoff. These never received a terminal
// webhook and need manual attention.
func (s *Store) ListStuckInCalling(cutoff time.Time) ([]*Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates
		WHERE status IN (?, ?)
		  AND datetime(updated_at) < datetime(?)
		ORDER BY updated_at ASC`

	rows, err := s.db.Query(query, StatusCallingScreening, StatusCallingScheduling, cutoff)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stuck candidates")
	}
	defer rows.Close()

	return scanCandidates(rows, "stuck candidates")
}

// LatestBatchID returns the most recently used batch id, or "" when no
// candidate carries one.
func (s *Store) LatestBatchID() (string, error) {
	query := `SELECT batch_id FROM candidates
		WHERE batch_id IS NOT NULL
		ORDER BY created_at DESC LIMIT 1`

	var batchID string
	err := s.db.QueryRow(query).Scan(&batchID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to get latest batch id")
	}
	return batchID, nil
}
