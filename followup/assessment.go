package followup

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hatchline/recruitpulse/candidate"
	"github.com/hatchline/recruitpulse/errors"
	"github.com/hatchline/recruitpulse/internal/phone"
	"github.com/hatchline/recruitpulse/internal/util"
	"github.com/hatchline/recruitpulse/prompt"
)

// AssessmentConfig governs the one-shot scheduling call after qualification.
type AssessmentConfig struct {
	Delay time.Duration
}

// AssessmentScheduler places the assessment scheduling call a short delay
// after a candidate qualifies. The dial happens once and goes straight to
// the provider: the candidate just finished a screening call, so the queue's
// rate gate does not apply.
type AssessmentScheduler struct {
	ctx        context.Context
	candidates *candidate.Store
	dialer     Dialer
	config     AssessmentConfig
	logger     *zap.SugaredLogger
}

// NewAssessmentScheduler creates the one-shot scheduler. Armed calls live
// longer than the webhook request that triggered them, so they run off the
// process context handed in here, not the caller's.
func NewAssessmentScheduler(ctx context.Context, candidates *candidate.Store, dialer Dialer,
	config AssessmentConfig, logger *zap.SugaredLogger) *AssessmentScheduler {
	return &AssessmentScheduler{
		ctx:        ctx,
		candidates: candidates,
		dialer:     dialer,
		config:     config,
		logger:     logger,
	}
}

// Schedule arms the delayed scheduling call. It returns immediately; the
// dial fires after the configured delay unless the process is shutting down.
func (s *AssessmentScheduler) Schedule(candidateID int64, overallScore float64) {
	s.logger.Infow("Assessment scheduling call armed",
		"candidate_id", candidateID,
		"overall_score", overallScore,
		"delay", s.config.Delay,
	)

	go func() {
		timer := time.NewTimer(s.config.Delay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		}

		if err := s.Dispatch(s.ctx, candidateID, overallScore); err != nil {
			s.logger.Errorw("Assessment scheduling call failed",
				"candidate_id", candidateID,
				"error", err,
			)
		}
	}()
}

// Dispatch places the scheduling call immediately and settles the candidate
// by the outcome.
func (s *AssessmentScheduler) Dispatch(ctx context.Context, candidateID int64, overallScore float64) error {
	c, err := s.candidates.FindByID(candidateID)
	if err != nil {
		return err
	}
	if !phone.Usable(c.Phone) {
		return errors.Newf("candidate %d has no usable phone for scheduling call", c.ID)
	}

	runID, dialErr := s.dialer.PlaceCall(ctx, c.Phone, prompt.Scheduling(c, overallScore))
	if dialErr == nil && runID != "" {
		s.logger.Infow("Assessment scheduling call initiated",
			"candidate_id", c.ID,
			"run_id", runID,
		)
		return s.candidates.Update(c.ID, candidate.Updates{
			Status:          util.Ptr(candidate.StatusCallingScheduling),
			CallStatus:      util.Ptr(candidate.CallStatusInProgress),
			SchedulingRunID: util.Ptr(runID),
		})
	}
	if dialErr == nil {
		dialErr = errors.New("provider returned no run id")
	}

	if err := s.candidates.Update(c.ID, candidate.Updates{
		Status:     util.Ptr(candidate.StatusSchedulingFailed),
		CallStatus: util.Ptr(candidate.CallStatusFailed),
	}); err != nil {
		return errors.CombineErrors(dialErr, err)
	}
	return dialErr
}
