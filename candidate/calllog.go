package candidate

import (
	"database/sql"
	"time"

	"github.com/hatchline/recruitpulse/errors"
)

// Call types recorded in the log.
const (
	CallTypeScreening       = "screening"
	CallTypeScheduling      = "scheduling"
	CallTypeCallback        = "callback"
	CallTypeCallbackRequest = "screening_callback_request"
)

// CallLog is one append-only record of a call attempt or outcome.
type CallLog struct {
	ID          int64
	CandidateID int64
	CallType    string
	RunID       string
	Status      string
	Transcript  string
	CreatedAt   time.Time
}

// CallLogStore handles the append-only call history
type CallLogStore struct {
	db *sql.DB
}

// NewCallLogStore creates a new call log store
func NewCallLogStore(db *sql.DB) *CallLogStore {
	return &CallLogStore{db: db}
}

// Append records a call event. Logs are never updated or deleted.
func (s *CallLogStore) Append(log *CallLog) error {
	query := `
		INSERT INTO call_logs (candidate_id, call_type, run_id, status, transcript)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		log.CandidateID,
		log.CallType,
		nullable(log.RunID),
		nullable(log.Status),
		nullable(log.Transcript),
	)
	if err != nil {
		return errors.Wrap(err, "failed to append call log")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to get call log id")
	}
	log.ID = id

	return nil
}

// ListByCandidate returns a candidate's call history, newest first.
func (s *CallLogStore) ListByCandidate(candidateID int64) ([]*CallLog, error) {
	query := `
		SELECT id, candidate_id, call_type, run_id, status, transcript, created_at
		FROM call_logs
		WHERE candidate_id = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.Query(query, candidateID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list call logs")
	}
	defer rows.Close()

	var logs []*CallLog
	for rows.Next() {
		var log CallLog
		var runID, status, transcript sql.NullString
		if err := rows.Scan(&log.ID, &log.CandidateID, &log.CallType,
			&runID, &status, &transcript, &log.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan call log")
		}
		log.RunID = runID.String
		log.Status = status.String
		log.Transcript = transcript.String
		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating call logs")
	}

	return logs, nil
}
