package followup

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hatchline/recruitpulse/candidate"
	"github.com/hatchline/recruitpulse/internal/util"
	"github.com/hatchline/recruitpulse/prompt"
)

// Dialer places an outbound call and returns the provider run id.
type Dialer interface {
	PlaceCall(ctx context.Context, phone, promptText string) (runID string, err error)
}

// FollowUpConfig bounds redials of candidates who never picked up.
type FollowUpConfig struct {
	MaxAttempts int
}

// FollowUpScanner redials candidates whose follow-up slot has arrived.
type FollowUpScanner struct {
	candidates *candidate.Store
	batches    *candidate.BatchStore
	dialer     Dialer
	config     FollowUpConfig
	logger     *zap.SugaredLogger

	timeNow func() time.Time // Injectable for testing
}

// NewFollowUpScanner creates a scanner over real time.
func NewFollowUpScanner(candidates *candidate.Store, batches *candidate.BatchStore,
	dialer Dialer, config FollowUpConfig, logger *zap.SugaredLogger) *FollowUpScanner {
	return &FollowUpScanner{
		candidates: candidates,
		batches:    batches,
		dialer:     dialer,
		config:     config,
		logger:     logger,
		timeNow:    time.Now,
	}
}

// Scan dials every due follow-up once and returns how many calls went out.
func (s *FollowUpScanner) Scan(ctx context.Context) (int, error) {
	now := s.timeNow()
	due, err := s.candidates.ListNeedingFollowUp(now, s.config.MaxAttempts)
	if err != nil {
		return 0, err
	}

	dialed := 0
	for _, c := range due {
		if err := s.redial(ctx, c, now); err != nil {
			s.logger.Errorw("Follow-up redial failed",
				"candidate_id", c.ID,
				"error", err,
			)
			continue
		}
		dialed++
	}
	return dialed, nil
}

func (s *FollowUpScanner) redial(ctx context.Context, c *candidate.Candidate, now time.Time) error {
	req, err := requirementsFor(s.batches, c)
	if err != nil {
		return err
	}

	runID, dialErr := s.dialer.PlaceCall(ctx, c.Phone, prompt.Screening(c, req))
	if dialErr == nil && runID != "" {
		s.logger.Infow("Follow-up call initiated",
			"candidate_id", c.ID,
			"run_id", runID,
			"attempt", c.FailedAttempts+1,
		)
		return s.candidates.Update(c.ID, candidate.Updates{
			Status:         util.Ptr(candidate.StatusCallingScreening),
			CallStatus:     util.Ptr(candidate.CallStatusInProgress),
			ScreeningRunID: util.Ptr(runID),
		})
	}

	attempts := c.FailedAttempts + 1
	if attempts >= s.config.MaxAttempts {
		s.logger.Warnw("Follow-up attempts exhausted",
			"candidate_id", c.ID,
			"attempts", attempts,
		)
		return s.candidates.Update(c.ID, candidate.Updates{
			Status:         util.Ptr(candidate.StatusNoResponse),
			CallStatus:     util.Ptr(candidate.CallStatusFailed),
			FailedAttempts: util.Ptr(attempts),
		})
	}

	nextSlot := NextFollowUpSlot(now)
	s.logger.Warnw("Follow-up unreachable, rescheduled",
		"candidate_id", c.ID,
		"next_slot", nextSlot,
		"error", dialErr,
	)
	return s.candidates.Update(c.ID, candidate.Updates{
		Status:         util.Ptr(candidate.StatusFollowUpScheduled),
		FailedAttempts: util.Ptr(attempts),
		FollowUpTime:   util.Ptr(nextSlot),
	})
}
