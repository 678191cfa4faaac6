package webhook

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/hatchline/recruitpulse/candidate"
	"github.com/hatchline/recruitpulse/errors"
	"github.com/hatchline/recruitpulse/followup"
	"github.com/hatchline/recruitpulse/internal/util"
	"github.com/hatchline/recruitpulse/llm"
	"github.com/hatchline/recruitpulse/mail"
)

// ErrMissingRunID is the one webhook failure surfaced to the provider as a
// client error. Without a run id the event can never be matched, so asking
// for a redelivery is pointless but honest.
var ErrMissingRunID = errors.New("webhook payload carries no run id")

// ErrInvalidPayload marks a webhook body that is not JSON at all. Also a
// client error, never worth a redelivery.
var ErrInvalidPayload = errors.New("invalid webhook payload")

// Analyzer reads call transcripts. Satisfied by llm.Client.
type Analyzer interface {
	ScoreScreeningTranscript(ctx context.Context, transcript string, cand *candidate.Candidate, req candidate.Requirements) (*llm.ScreeningAnalysis, error)
	ScoreSchedulingTranscript(ctx context.Context, transcript string) (*llm.SchedulingAnalysis, error)
}

// AssessmentScheduler arms the delayed scheduling call for a qualified
// candidate. Satisfied by followup.AssessmentScheduler.
type AssessmentScheduler interface {
	Schedule(candidateID int64, overallScore float64)
}

// LinkMailer sends the assessment invitation. Satisfied by mail.Client.
type LinkMailer interface {
	SendAssessmentLink(ctx context.Context, cand *candidate.Candidate, link string) error
}

// Config tunes dispatch decisions.
type Config struct {
	QualificationThreshold float64
	AssessmentBaseURL      string
}

// Result reports what one webhook delivery did.
type Result struct {
	Ignored     bool   `json:"ignored,omitempty"`
	Reason      string `json:"reason,omitempty"`
	CandidateID int64  `json:"candidate_id,omitempty"`
	Route       string `json:"route,omitempty"`
}

// Dispatcher turns terminal call webhooks into candidate transitions.
type Dispatcher struct {
	candidates  *candidate.Store
	batches     *candidate.BatchStore
	calls       *candidate.CallLogStore
	processed   *ProcessedStore
	analyzer    Analyzer
	assessments AssessmentScheduler
	mailer      LinkMailer
	recent      *Recent
	config      Config
	logger      *zap.SugaredLogger

	timeNow func() time.Time // Injectable for testing
}

// NewDispatcher wires the webhook processing pipeline.
func NewDispatcher(candidates *candidate.Store, batches *candidate.BatchStore,
	calls *candidate.CallLogStore, processed *ProcessedStore, analyzer Analyzer,
	assessments AssessmentScheduler, mailer LinkMailer, recent *Recent,
	config Config, logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		candidates:  candidates,
		batches:     batches,
		calls:       calls,
		processed:   processed,
		analyzer:    analyzer,
		assessments: assessments,
		mailer:      mailer,
		recent:      recent,
		config:      config,
		logger:      logger,
		timeNow:     time.Now,
	}
}

// HandleEvent processes one raw webhook body. Every outcome except a missing
// run id acknowledges the delivery: the provider retries on anything else,
// and retrying an event we chose to drop only duplicates work.
func (d *Dispatcher) HandleEvent(ctx context.Context, body []byte) (*Result, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrapf(ErrInvalidPayload, "failed to decode webhook body: %v", err)
	}
	d.recent.Add(payload, d.timeNow())

	ev := Extract(payload)
	if ev.Status != StatusCompleted {
		d.logger.Debugw("Ignoring non-terminal webhook", "status", ev.Status)
		return &Result{Ignored: true, Reason: "not a terminal event"}, nil
	}
	if ev.RunID == "" {
		return nil, ErrMissingRunID
	}

	seen, err := d.processed.Seen(ev.RunID)
	if err != nil {
		return nil, err
	}
	if seen {
		d.logger.Infow("Duplicate terminal webhook ignored", "run_id", ev.RunID)
		return &Result{Ignored: true, Reason: "already processed"}, nil
	}

	c, err := d.candidates.FindByRunID(ev.RunID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		d.logger.Warnw("No candidate matches webhook run id", "run_id", ev.RunID)
		return &Result{Ignored: true, Reason: "no matching candidate"}, nil
	}

	var result *Result
	switch ev.RunID {
	case c.SchedulingRunID:
		result, err = d.processScheduling(ctx, c, ev)
	default:
		// Screening, and the fallback for run ids that match the candidate
		// through an older column state.
		result, err = d.processScreening(ctx, c, ev)
	}
	if err != nil {
		return nil, err
	}

	if err := d.processed.Mark(ev.RunID); err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Dispatcher) processScreening(ctx context.Context, c *candidate.Candidate, ev Event) (*Result, error) {
	req, err := d.requirementsFor(c)
	if err != nil {
		return nil, err
	}

	analysis, err := d.analyzer.ScoreScreeningTranscript(ctx, ev.Transcript, c, req)
	if err != nil {
		d.logger.Errorw("Screening analysis failed, routing to manual review",
			"candidate_id", c.ID,
			"error", err,
		)
		uerr := d.candidates.Update(c.ID, candidate.Updates{
			Status:              util.Ptr(candidate.StatusManualReview),
			CallStatus:          util.Ptr(ev.CallStatus),
			ScreeningTranscript: util.Ptr(ev.Transcript),
		})
		if uerr != nil {
			return nil, errors.CombineErrors(err, uerr)
		}
		if aerr := d.calls.Append(&candidate.CallLog{
			CandidateID: c.ID,
			CallType:    candidate.CallTypeScreening,
			RunID:       ev.RunID,
			Status:      ev.CallStatus,
			Transcript:  ev.Transcript,
		}); aerr != nil {
			return nil, aerr
		}
		return &Result{CandidateID: c.ID, Route: "screening", Reason: "analysis failed, manual review"}, nil
	}

	if analysis.CallbackRequested {
		return d.processCallbackRequest(c, ev, analysis)
	}

	if err := d.candidates.UpdateScores(c.ID, analysis.Scores, analysis.BreakdownJSON()); err != nil {
		return nil, err
	}

	updates := candidate.Updates{
		CallStatus:          util.Ptr(ev.CallStatus),
		ScreeningTranscript: util.Ptr(ev.Transcript),
		ConversationSummary: util.Ptr(analysis.Summary),
	}

	overall := analysis.Scores.Overall()
	switch {
	case !analysis.HasScore():
		updates.Status = util.Ptr(candidate.StatusManualReview)
		d.logger.Warnw("No score from screening transcript", "candidate_id", c.ID)
	case overall >= d.config.QualificationThreshold:
		updates.Status = util.Ptr(candidate.StatusQualified)
		d.logger.Infow("Candidate qualified",
			"candidate_id", c.ID,
			"overall_score", overall,
		)
	default:
		updates.Status = util.Ptr(candidate.StatusRejectedLowScore)
		d.logger.Infow("Candidate rejected",
			"candidate_id", c.ID,
			"overall_score", overall,
			"threshold", d.config.QualificationThreshold,
		)
	}

	if err := d.candidates.Update(c.ID, updates); err != nil {
		return nil, err
	}

	if err := d.calls.Append(&candidate.CallLog{
		CandidateID: c.ID,
		CallType:    candidate.CallTypeScreening,
		RunID:       ev.RunID,
		Status:      ev.CallStatus,
		Transcript:  ev.Transcript,
	}); err != nil {
		return nil, err
	}

	if *updates.Status == candidate.StatusQualified {
		d.assessments.Schedule(c.ID, overall)
	}

	return &Result{CandidateID: c.ID, Route: "screening"}, nil
}

func (d *Dispatcher) processCallbackRequest(c *candidate.Candidate, ev Event, analysis *llm.ScreeningAnalysis) (*Result, error) {
	callbackAt := followup.ParseCallbackTime(analysis.CallbackTimeText, d.timeNow())
	reason := analysis.CallbackReason
	if reason == "" {
		reason = "Candidate was busy"
	}

	if err := d.candidates.ScheduleCallback(c.ID, callbackAt, reason); err != nil {
		return nil, err
	}
	if err := d.calls.Append(&candidate.CallLog{
		CandidateID: c.ID,
		CallType:    candidate.CallTypeCallbackRequest,
		RunID:       ev.RunID,
		Status:      "Callback Requested",
		Transcript:  ev.Transcript,
	}); err != nil {
		return nil, err
	}

	d.logger.Infow("Callback scheduled from screening call",
		"candidate_id", c.ID,
		"callback_at", callbackAt,
		"reason", reason,
	)
	return &Result{CandidateID: c.ID, Route: "callback"}, nil
}

func (d *Dispatcher) processScheduling(ctx context.Context, c *candidate.Candidate, ev Event) (*Result, error) {
	analysis, err := d.analyzer.ScoreSchedulingTranscript(ctx, ev.Transcript)
	if err != nil {
		d.logger.Errorw("Scheduling analysis failed",
			"candidate_id", c.ID,
			"error", err,
		)
		uerr := d.candidates.Update(c.ID, candidate.Updates{
			Status:               util.Ptr(candidate.StatusSchedulingFailed),
			CallStatus:           util.Ptr(ev.CallStatus),
			SchedulingTranscript: util.Ptr(ev.Transcript),
		})
		if uerr != nil {
			return nil, errors.CombineErrors(err, uerr)
		}
		if aerr := d.calls.Append(&candidate.CallLog{
			CandidateID: c.ID,
			CallType:    candidate.CallTypeScheduling,
			RunID:       ev.RunID,
			Status:      ev.CallStatus,
			Transcript:  ev.Transcript,
		}); aerr != nil {
			return nil, aerr
		}
		return &Result{CandidateID: c.ID, Route: "scheduling", Reason: "analysis failed, manual intervention"}, nil
	}

	updates := candidate.Updates{
		CallStatus:           util.Ptr(ev.CallStatus),
		SchedulingTranscript: util.Ptr(ev.Transcript),
		EmailVerified:        util.Ptr(analysis.EmailVerified),
	}
	if analysis.VerifiedEmail != "" {
		updates.VerifiedEmail = util.Ptr(analysis.VerifiedEmail)
		c.VerifiedEmail = analysis.VerifiedEmail
	}
	if analysis.AssessmentDate != "" {
		updates.AssessmentDate = util.Ptr(analysis.AssessmentDate)
		c.AssessmentDate = analysis.AssessmentDate
	}
	if analysis.AssessmentTime != "" {
		updates.AssessmentTime = util.Ptr(analysis.AssessmentTime)
		c.AssessmentTime = analysis.AssessmentTime
	}

	confirmed := analysis.Confirmed && analysis.AssessmentDate != "" && analysis.AssessmentTime != ""
	if confirmed {
		updates.Status = util.Ptr(d.sendLink(ctx, c, &updates))
	} else {
		updates.Status = util.Ptr(candidate.StatusSchedulingPending)
	}

	if err := d.candidates.Update(c.ID, updates); err != nil {
		return nil, err
	}

	if err := d.calls.Append(&candidate.CallLog{
		CandidateID: c.ID,
		CallType:    candidate.CallTypeScheduling,
		RunID:       ev.RunID,
		Status:      ev.CallStatus,
		Transcript:  ev.Transcript,
	}); err != nil {
		return nil, err
	}

	return &Result{CandidateID: c.ID, Route: "scheduling"}, nil
}

// sendLink attempts the assessment email for a fully confirmed slot and
// returns the status the candidate should land in. An unusable address or a
// failed send falls back to the manual-link status instead of failing the
// webhook.
func (d *Dispatcher) sendLink(ctx context.Context, c *candidate.Candidate, updates *candidate.Updates) string {
	if c.ContactEmail() == "" {
		d.logger.Warnw("Assessment confirmed but no usable email", "candidate_id", c.ID)
		return candidate.StatusAssessmentAwaiting
	}

	link := mail.AssessmentLink(d.config.AssessmentBaseURL, c.ID)
	if err := d.mailer.SendAssessmentLink(ctx, c, link); err != nil {
		d.logger.Errorw("Assessment link email failed",
			"candidate_id", c.ID,
			"error", err,
		)
		return candidate.StatusAssessmentAwaiting
	}

	updates.AssessmentLink = util.Ptr(link)
	updates.AssessmentLinkSent = util.Ptr(true)
	d.logger.Infow("Assessment link sent",
		"candidate_id", c.ID,
		"to", c.ContactEmail(),
	)
	return candidate.StatusAssessmentLinkSent
}

func (d *Dispatcher) requirementsFor(c *candidate.Candidate) (candidate.Requirements, error) {
	if c.BatchID == "" {
		return candidate.Requirements{}, nil
	}
	batch, err := d.batches.FindByBatchID(c.BatchID)
	if err != nil {
		return candidate.Requirements{}, err
	}
	if batch == nil {
		return candidate.Requirements{}, nil
	}
	return batch.Requirements, nil
}
