package followup

import (
	"time"

	"go.uber.org/zap"

	"github.com/hatchline/recruitpulse/candidate"
	"github.com/hatchline/recruitpulse/internal/util"
)

// Sweeper flags candidates stuck in an in-flight call status. A call whose
// terminal webhook never arrived would otherwise sit in Calling forever.
type Sweeper struct {
	candidates *candidate.Store
	staleAfter time.Duration
	logger     *zap.SugaredLogger

	timeNow func() time.Time // Injectable for testing
}

// NewSweeper creates a sweeper over real time.
func NewSweeper(candidates *candidate.Store, staleAfter time.Duration, logger *zap.SugaredLogger) *Sweeper {
	return &Sweeper{
		candidates: candidates,
		staleAfter: staleAfter,
		logger:     logger,
		timeNow:    time.Now,
	}
}

// Sweep moves every stale in-flight candidate to manual review and returns
// how many were flagged.
func (s *Sweeper) Sweep() (int, error) {
	cutoff := s.timeNow().Add(-s.staleAfter)
	stuck, err := s.candidates.ListStuckInCalling(cutoff)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, c := range stuck {
		err := s.candidates.Update(c.ID, candidate.Updates{
			Status:     util.Ptr(candidate.StatusManualReviewStale),
			CallStatus: util.Ptr(candidate.CallStatusFailed),
		})
		if err != nil {
			s.logger.Errorw("Failed to flag stale candidate",
				"candidate_id", c.ID,
				"error", err,
			)
			continue
		}
		s.logger.Warnw("Stale call flagged for manual review",
			"candidate_id", c.ID,
			"status_was", c.Status,
			"last_update", c.UpdatedAt,
		)
		flagged++
	}
	return flagged, nil
}
