package queue

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/hatchline/recruitpulse/candidate"
	"github.com/hatchline/recruitpulse/errors"
	"github.com/hatchline/recruitpulse/followup"
	"github.com/hatchline/recruitpulse/internal/util"
	"github.com/hatchline/recruitpulse/prompt"
)

// Dialer places an outbound call and returns the provider run id.
type Dialer interface {
	PlaceCall(ctx context.Context, phone, promptText string) (runID string, err error)
}

// SchedulerConfig controls spacing and the working-hour window for enqueued
// calls. MinDelay must be positive so scheduled times strictly increase
// within a batch.
type SchedulerConfig struct {
	MinDelay        time.Duration
	MaxDelay        time.Duration
	StartHour       int
	EndHour         int
	MaxAttempts     int // zero means MaxEntryAttempts
	MaxCallAttempts int // zero means MaxCallAttempts
}

// Scheduler drains the call queue one entry per tick and spaces new entries
// with randomized jitter so outbound calls never look machine-gunned.
type Scheduler struct {
	store      *Store
	candidates *candidate.Store
	batches    *candidate.BatchStore
	dialer     Dialer
	gate       *RateGate
	config     SchedulerConfig
	logger     *zap.SugaredLogger

	rng     *rand.Rand       // Injectable for testing
	timeNow func() time.Time // Injectable for testing
}

// NewScheduler creates a scheduler with real time and a seeded jitter source
func NewScheduler(store *Store, candidates *candidate.Store, batches *candidate.BatchStore,
	dialer Dialer, gate *RateGate, config SchedulerConfig, logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		store:      store,
		candidates: candidates,
		batches:    batches,
		dialer:     dialer,
		gate:       gate,
		config:     config,
		logger:     logger,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		timeNow:    time.Now,
	}
}

// EnqueueResult reports a bulk-add outcome.
type EnqueueResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// Enqueue adds candidates to the call queue with jittered, strictly
// increasing scheduled times. Candidates that already have a pending entry
// are skipped, so repeated bulk-adds are idempotent.
func (s *Scheduler) Enqueue(candidateIDs []int64, priority int) (*EnqueueResult, error) {
	result := &EnqueueResult{}
	next := s.nextAvailableSlot(s.timeNow())

	for _, id := range candidateIDs {
		pending, err := s.store.HasPending(id)
		if err != nil {
			return nil, err
		}
		if pending {
			result.Skipped++
			continue
		}

		if _, err := s.store.Insert(id, priority, next); err != nil {
			return nil, err
		}
		result.Added++
		next = s.nextCallTime(next)
	}

	s.logger.Infow("Enqueued candidates for calling",
		"added", result.Added,
		"skipped", result.Skipped,
		"priority", priority,
	)
	return result, nil
}

// nextAvailableSlot picks the first entry's scheduled time: a short delay
// from now inside the window, otherwise the next window start.
func (s *Scheduler) nextAvailableSlot(now time.Time) time.Time {
	switch {
	case now.Hour() < s.config.StartHour:
		return s.windowStart(now)
	case now.Hour() >= s.config.EndHour:
		return s.windowStart(now.AddDate(0, 0, 1))
	default:
		return now.Add(s.config.MinDelay)
	}
}

// nextCallTime advances from a previous slot by a uniformly random delay in
// [MinDelay, MaxDelay], rolling past the window end to the next day's start.
func (s *Scheduler) nextCallTime(from time.Time) time.Time {
	delay := s.config.MinDelay
	if jitter := int64(s.config.MaxDelay - s.config.MinDelay); jitter > 0 {
		delay += time.Duration(s.rng.Int63n(jitter + 1))
	}

	next := from.Add(delay)
	if next.Hour() >= s.config.EndHour {
		next = s.windowStart(next.AddDate(0, 0, 1))
	}
	return next
}

func (s *Scheduler) windowStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), s.config.StartHour, 0, 0, 0, t.Location())
}

// TickResult reports what one scheduler tick did.
type TickResult struct {
	Called         bool
	Reason         string
	CandidateID    int64
	RunID          string
	RemainingSlots int
}

// Tick processes at most one queue entry: ask the rate gate, claim the next
// eligible entry, dispatch the screening call, and settle the entry and the
// candidate according to the outcome.
func (s *Scheduler) Tick(ctx context.Context) (*TickResult, error) {
	verdict, err := s.gate.CanDispatch()
	if err != nil {
		return nil, err
	}
	if !verdict.Allowed {
		return &TickResult{Reason: verdict.Reason}, nil
	}

	now := s.timeNow()
	entry, err := s.store.NextEligible(now)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return &TickResult{Reason: "no candidates due"}, nil
	}

	claimed, err := s.store.Claim(entry.ID, now)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Another dispatcher got there first
		return &TickResult{Reason: "entry already claimed"}, nil
	}

	c, err := s.candidates.FindByID(entry.CandidateID)
	if err != nil {
		if ferr := s.store.MarkFailed(entry.ID, "candidate missing"); ferr != nil {
			return nil, errors.CombineErrors(err, ferr)
		}
		return nil, errors.Wrap(err, "failed to load claimed candidate")
	}

	req, err := s.requirementsFor(c)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Dispatching screening call",
		"candidate_id", c.ID,
		"candidate", c.Name,
		"scheduled_time", entry.ScheduledTime,
		"calls_last_hour", verdict.CallsInLastHour,
	)

	runID, dialErr := s.dialer.PlaceCall(ctx, c.Phone, prompt.Screening(c, req))
	if dialErr == nil && runID != "" {
		return s.settleDispatched(entry, c, runID, verdict)
	}
	if dialErr == nil {
		dialErr = errors.New("provider returned no run id")
	}
	return s.settleFailed(entry, c, dialErr)
}

func (s *Scheduler) requirementsFor(c *candidate.Candidate) (candidate.Requirements, error) {
	if c.BatchID == "" {
		return candidate.Requirements{}, nil
	}
	batch, err := s.batches.FindByBatchID(c.BatchID)
	if err != nil {
		return candidate.Requirements{}, err
	}
	if batch == nil {
		return candidate.Requirements{}, nil
	}
	return batch.Requirements, nil
}

func (s *Scheduler) settleDispatched(entry *Entry, c *candidate.Candidate, runID string, verdict *Verdict) (*TickResult, error) {
	if err := s.store.MarkCompleted(entry.ID, s.timeNow()); err != nil {
		return nil, err
	}

	err := s.candidates.Update(c.ID, candidate.Updates{
		Status:         util.Ptr(candidate.StatusCallingScreening),
		CallStatus:     util.Ptr(candidate.CallStatusInProgress),
		ScreeningRunID: util.Ptr(runID),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Screening call initiated",
		"candidate_id", c.ID,
		"run_id", runID,
		"remaining_slots", verdict.RemainingSlots-1,
	)

	return &TickResult{
		Called:         true,
		CandidateID:    c.ID,
		RunID:          runID,
		RemainingSlots: verdict.RemainingSlots - 1,
	}, nil
}

func (s *Scheduler) settleFailed(entry *Entry, c *candidate.Candidate, dialErr error) (*TickResult, error) {
	attempts := entry.Attempts + 1
	maxAttempts := s.config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = MaxEntryAttempts
	}

	if attempts >= maxAttempts {
		return s.settleExhausted(entry, c, dialErr)
	}

	retryAt := s.nextCallTime(s.timeNow())
	if err := s.store.Reschedule(entry.ID, retryAt, dialErr.Error()); err != nil {
		return nil, err
	}

	s.logger.Warnw("Call failed, rescheduled",
		"candidate_id", c.ID,
		"attempts", attempts,
		"retry_at", retryAt,
		"error", dialErr,
	)
	return &TickResult{Reason: "dial failed, rescheduled", CandidateID: c.ID}, nil
}

// settleExhausted closes out a queue entry whose retries are spent. The
// candidate gets a follow-up slot while dial rounds remain, and goes
// no-response only once the per-candidate ceiling is hit too.
func (s *Scheduler) settleExhausted(entry *Entry, c *candidate.Candidate, dialErr error) (*TickResult, error) {
	if err := s.store.MarkFailed(entry.ID, dialErr.Error()); err != nil {
		return nil, err
	}

	callMax := s.config.MaxCallAttempts
	if callMax <= 0 {
		callMax = MaxCallAttempts
	}
	failed := c.FailedAttempts + 1

	if failed >= callMax {
		err := s.candidates.Update(c.ID, candidate.Updates{
			Status:         util.Ptr(candidate.StatusNoResponse),
			CallStatus:     util.Ptr(candidate.CallStatusFailed),
			FailedAttempts: util.Ptr(failed),
		})
		if err != nil {
			return nil, err
		}

		s.logger.Warnw("Call failed permanently",
			"candidate_id", c.ID,
			"failed_attempts", failed,
			"error", dialErr,
		)
		return &TickResult{Reason: "max attempts reached", CandidateID: c.ID}, nil
	}

	slot := followup.NextFollowUpSlot(s.timeNow())
	err := s.candidates.Update(c.ID, candidate.Updates{
		Status:         util.Ptr(candidate.StatusFollowUpScheduled),
		CallStatus:     util.Ptr(candidate.CallStatusFailed),
		FailedAttempts: util.Ptr(failed),
		FollowUpTime:   util.Ptr(slot),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warnw("Call failed, follow-up scheduled",
		"candidate_id", c.ID,
		"failed_attempts", failed,
		"follow_up_at", slot,
		"error", dialErr,
	)
	return &TickResult{Reason: "dial failed, follow-up scheduled", CandidateID: c.ID}, nil
}
