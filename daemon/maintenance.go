package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hatchline/recruitpulse/followup"
	"github.com/hatchline/recruitpulse/queue"
)

// Maintenance bundles the daily housekeeping: terminal queue entries past
// retention are deleted, and calls stuck without a terminal webhook are
// flagged for manual review.
type Maintenance struct {
	queue     *queue.Store
	sweeper   *followup.Sweeper
	retention time.Duration
	logger    *zap.SugaredLogger

	timeNow func() time.Time // Injectable for testing
}

// NewMaintenance creates the maintenance bundle.
func NewMaintenance(queueStore *queue.Store, sweeper *followup.Sweeper,
	retention time.Duration, logger *zap.SugaredLogger) *Maintenance {
	return &Maintenance{
		queue:     queueStore,
		sweeper:   sweeper,
		retention: retention,
		logger:    logger,
		timeNow:   time.Now,
	}
}

// Maintain runs one maintenance pass.
func (m *Maintenance) Maintain(_ context.Context) error {
	removed, err := m.queue.Cleanup(m.timeNow().Add(-m.retention))
	if err != nil {
		return err
	}

	flagged, err := m.sweeper.Sweep()
	if err != nil {
		return err
	}

	m.logger.Infow("Maintenance pass complete",
		"queue_entries_removed", removed,
		"stale_calls_flagged", flagged,
	)
	return nil
}
