package queue

import (
	"database/sql"
	"time"

	"github.com/hatchline/recruitpulse/errors"
	"github.com/hatchline/recruitpulse/internal/phone"
)

// Store handles persistence of call queue entries
type Store struct {
	db *sql.DB
}

// NewStore creates a new queue store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const entryColumns = `
	id, candidate_id, priority, scheduled_time, status, attempts,
	last_attempt_time, called_at, error_message, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var lastAttempt, calledAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(
		&e.ID, &e.CandidateID, &e.Priority, &e.ScheduledTime, &e.Status,
		&e.Attempts, &lastAttempt, &calledAt, &errMsg, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastAttempt.Valid {
		e.LastAttemptTime = &lastAttempt.Time
	}
	if calledAt.Valid {
		e.CalledAt = &calledAt.Time
	}
	e.ErrorMessage = errMsg.String

	return &e, nil
}

// Insert adds a pending entry for a candidate.
func (s *Store) Insert(candidateID int64, priority int, scheduledTime time.Time) (*Entry, error) {
	query := `
		INSERT INTO call_queue (candidate_id, priority, scheduled_time, status)
		VALUES (?, ?, ?, ?)
	`

	result, err := s.db.Exec(query, candidateID, priority, scheduledTime, StatusPending)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert queue entry")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get queue entry id")
	}

	return &Entry{
		ID:            id,
		CandidateID:   candidateID,
		Priority:      priority,
		ScheduledTime: scheduledTime,
		Status:        StatusPending,
	}, nil
}

// HasPending reports whether the candidate already has a pending entry.
// Enqueue uses this to keep bulk-adds idempotent.
func (s *Store) HasPending(candidateID int64) (bool, error) {
	query := `SELECT COUNT(*) FROM call_queue WHERE candidate_id = ? AND status = ?`

	var count int
	if err := s.db.QueryRow(query, candidateID, StatusPending).Scan(&count); err != nil {
		return false, errors.Wrap(err, "failed to check pending entry")
	}
	return count > 0, nil
}

// GetEntry retrieves a queue entry by ID
func (s *Store) GetEntry(id int64) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM call_queue WHERE id = ?`

	e, err := scanEntry(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Newf("queue entry not found: %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get queue entry")
	}
	return e, nil
}

// NextEligible returns the highest-priority pending entry whose scheduled
// time has arrived and whose candidate still has a usable phone. Returns nil
// when nothing is due.
func (s *Store) NextEligible(now time.Time) (*Entry, error) {
	query := `
		SELECT cq.id, cq.candidate_id, cq.priority, cq.scheduled_time, cq.status,
		       cq.attempts, cq.last_attempt_time, cq.called_at, cq.error_message,
		       cq.created_at, cq.updated_at
		FROM call_queue cq
		JOIN candidates c ON cq.candidate_id = c.id
		WHERE cq.status = ?
		  AND datetime(cq.scheduled_time) <= datetime(?)
		  AND c.phone IS NOT NULL AND c.phone != '' AND c.phone != ?
		ORDER BY cq.priority DESC, cq.scheduled_time ASC
		LIMIT 1
	`

	e, err := scanEntry(s.db.QueryRow(query, StatusPending, now, phone.NotAvailable))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get next eligible entry")
	}
	return e, nil
}

// Claim atomically moves a pending entry to processing. Returns false when
// the entry was already claimed by another dispatcher; the conditional
// update is what makes concurrent ticks safe.
func (s *Store) Claim(id int64, now time.Time) (bool, error) {
	query := `
		UPDATE call_queue
		SET status = ?, last_attempt_time = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := s.db.Exec(query, StatusProcessing, now, id, StatusPending)
	if err != nil {
		return false, errors.Wrap(err, "failed to claim queue entry")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to get rows affected")
	}
	return rows == 1, nil
}

// MarkCompleted finalizes a dispatched entry and stamps called_at, which
// feeds the rolling-hour rate count.
func (s *Store) MarkCompleted(id int64, calledAt time.Time) error {
	query := `
		UPDATE call_queue
		SET status = ?, called_at = ?, attempts = attempts + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := s.db.Exec(query, StatusCompleted, calledAt, id); err != nil {
		return errors.Wrap(err, "failed to mark entry completed")
	}
	return nil
}

// Reschedule returns a failed dial to pending at a later slot, recording the
// attempt and the dial error.
func (s *Store) Reschedule(id int64, at time.Time, dialErr string) error {
	query := `
		UPDATE call_queue
		SET status = ?, scheduled_time = ?, attempts = attempts + 1,
		    error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := s.db.Exec(query, StatusPending, at, dialErr, id); err != nil {
		return errors.Wrap(err, "failed to reschedule entry")
	}
	return nil
}

// MarkFailed terminally fails an entry after the retry ceiling.
func (s *Store) MarkFailed(id int64, dialErr string) error {
	query := `
		UPDATE call_queue
		SET status = ?, attempts = attempts + 1, error_message = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := s.db.Exec(query, StatusFailed, dialErr, id); err != nil {
		return errors.Wrap(err, "failed to mark entry failed")
	}
	return nil
}

// CountCompletedSince counts completed dispatches with called_at at or after
// the cutoff. This is the rate gate's rolling-hour counter.
func (s *Store) CountCompletedSince(cutoff time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM call_queue
		WHERE status = ? AND datetime(called_at) >= datetime(?)
	`

	var count int
	if err := s.db.QueryRow(query, StatusCompleted, cutoff).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count completed calls")
	}
	return count, nil
}

// Stats summarizes the queue for the stats API and CLI.
type Stats struct {
	Pending      int        `json:"pending"`
	Processing   int        `json:"processing"`
	Completed    int        `json:"completed"`
	Failed       int        `json:"failed"`
	NextCallTime *time.Time `json:"next_call_time"`
}

func (s *Store) Stats() (*Stats, error) {
	query := `
		SELECT
			COUNT(CASE WHEN status = 'pending' THEN 1 END),
			COUNT(CASE WHEN status = 'processing' THEN 1 END),
			COUNT(CASE WHEN status = 'completed' THEN 1 END),
			COUNT(CASE WHEN status = 'failed' THEN 1 END)
		FROM call_queue
	`

	var stats Stats
	err := s.db.QueryRow(query).Scan(
		&stats.Pending, &stats.Processing, &stats.Completed, &stats.Failed,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get queue stats")
	}

	nextQuery := `
		SELECT scheduled_time FROM call_queue
		WHERE status = ? ORDER BY scheduled_time ASC LIMIT 1
	`
	var next time.Time
	err = s.db.QueryRow(nextQuery, StatusPending).Scan(&next)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(err, "failed to get next call time")
	}
	if err == nil {
		stats.NextCallTime = &next
	}

	return &stats, nil
}

// Cleanup removes terminal entries with no activity since the cutoff.
func (s *Store) Cleanup(cutoff time.Time) (int, error) {
	query := `
		DELETE FROM call_queue
		WHERE status IN (?, ?) AND datetime(updated_at) < datetime(?)
	`

	result, err := s.db.Exec(query, StatusCompleted, StatusFailed, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "failed to cleanup queue entries")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get rows affected")
	}
	return int(rows), nil
}
