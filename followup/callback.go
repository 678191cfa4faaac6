package followup

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hatchline/recruitpulse/candidate"
	"github.com/hatchline/recruitpulse/internal/util"
	"github.com/hatchline/recruitpulse/prompt"
)

// CallbackConfig bounds candidate-requested callback redials.
type CallbackConfig struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

// CallbackScanner redials candidates who asked to be called back at a
// specific time. Callback dials bypass the queue: the candidate picked the
// slot, so the jittered spacing does not apply.
type CallbackScanner struct {
	candidates *candidate.Store
	batches    *candidate.BatchStore
	calls      *candidate.CallLogStore
	dialer     Dialer
	config     CallbackConfig
	logger     *zap.SugaredLogger

	timeNow func() time.Time // Injectable for testing
}

// NewCallbackScanner creates a scanner over real time.
func NewCallbackScanner(candidates *candidate.Store, batches *candidate.BatchStore,
	calls *candidate.CallLogStore, dialer Dialer, config CallbackConfig,
	logger *zap.SugaredLogger) *CallbackScanner {
	return &CallbackScanner{
		candidates: candidates,
		batches:    batches,
		calls:      calls,
		dialer:     dialer,
		config:     config,
		logger:     logger,
		timeNow:    time.Now,
	}
}

// Scan dials every due callback once and returns how many calls went out.
func (s *CallbackScanner) Scan(ctx context.Context) (int, error) {
	now := s.timeNow()
	due, err := s.candidates.ListDueCallbacks(now, s.config.MaxAttempts)
	if err != nil {
		return 0, err
	}

	dialed := 0
	for _, c := range due {
		if err := s.redial(ctx, c, now); err != nil {
			s.logger.Errorw("Callback redial failed",
				"candidate_id", c.ID,
				"error", err,
			)
			continue
		}
		dialed++
	}
	return dialed, nil
}

func (s *CallbackScanner) redial(ctx context.Context, c *candidate.Candidate, now time.Time) error {
	req, err := requirementsFor(s.batches, c)
	if err != nil {
		return err
	}

	runID, dialErr := s.dialer.PlaceCall(ctx, c.Phone, prompt.Callback(c, req))
	if dialErr == nil && runID != "" {
		err := s.candidates.Update(c.ID, candidate.Updates{
			Status:         util.Ptr(candidate.StatusCallingScreening),
			CallStatus:     util.Ptr(candidate.CallStatusInProgress),
			ScreeningRunID: util.Ptr(runID),
		})
		if err != nil {
			return err
		}
		if err := s.candidates.ClearCallback(c.ID); err != nil {
			return err
		}
		if err := s.calls.Append(&candidate.CallLog{
			CandidateID: c.ID,
			CallType:    candidate.CallTypeCallback,
			RunID:       runID,
			Status:      "initiated",
		}); err != nil {
			return err
		}

		s.logger.Infow("Callback call initiated",
			"candidate_id", c.ID,
			"run_id", runID,
			"attempt", c.CallbackAttempts+1,
		)
		return nil
	}

	if err := s.candidates.RecordCallbackAttempt(c.ID, now); err != nil {
		return err
	}

	if c.CallbackAttempts+1 >= s.config.MaxAttempts {
		s.logger.Warnw("Callback attempts exhausted",
			"candidate_id", c.ID,
			"attempts", c.CallbackAttempts+1,
		)
		return s.candidates.Update(c.ID, candidate.Updates{
			Status:     util.Ptr(candidate.StatusNoResponse),
			CallStatus: util.Ptr(candidate.CallStatusFailed),
		})
	}

	retryAt := now.Add(s.config.RetryDelay)
	s.logger.Warnw("Callback unreachable, rescheduled",
		"candidate_id", c.ID,
		"retry_at", retryAt,
		"error", dialErr,
	)
	return s.candidates.RescheduleCallback(c.ID, retryAt)
}

// requirementsFor loads the job-requirements snapshot the candidate was
// ingested against, falling back to an empty snapshot for loose candidates.
func requirementsFor(batches *candidate.BatchStore, c *candidate.Candidate) (candidate.Requirements, error) {
	if c.BatchID == "" {
		return candidate.Requirements{}, nil
	}
	batch, err := batches.FindByBatchID(c.BatchID)
	if err != nil {
		return candidate.Requirements{}, err
	}
	if batch == nil {
		return candidate.Requirements{}, nil
	}
	return batch.Requirements, nil
}
