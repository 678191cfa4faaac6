package webhook

import (
	"database/sql"

	"github.com/hatchline/recruitpulse/errors"
)

// ProcessedStore records which run ids already had their terminal webhook
// handled. Providers redeliver on timeouts, and a redelivered terminal event
// must not re-score a candidate.
type ProcessedStore struct {
	db *sql.DB
}

// NewProcessedStore creates the dedup store.
func NewProcessedStore(db *sql.DB) *ProcessedStore {
	return &ProcessedStore{db: db}
}

// Seen reports whether the run id was already processed.
func (s *ProcessedStore) Seen(runID string) (bool, error) {
	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM processed_webhooks WHERE run_id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to check processed webhook")
	}
	return true, nil
}

// Mark records the run id as processed. Marking twice is harmless.
func (s *ProcessedStore) Mark(runID string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO processed_webhooks (run_id) VALUES (?)`, runID)
	if err != nil {
		return errors.Wrap(err, "failed to mark webhook processed")
	}
	return nil
}
