// Package queue implements the rate-limited call queue: a durable table of
// scheduled dial attempts drained one entry per tick, gated by working hours
// and a rolling-hour call cap.
package queue

import "time"

// Entry statuses. An entry moves pending -> processing -> completed, or back
// to pending on a failed dial until the retry ceiling, then failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// MaxEntryAttempts is the dial retry ceiling per queue entry.
const MaxEntryAttempts = 3

// MaxCallAttempts is the dial-round ceiling per candidate. Each exhausted
// queue entry counts as one round; rounds below the ceiling earn a follow-up
// slot instead of a terminal no-response.
const MaxCallAttempts = 2

// Entry is one row of the call_queue table.
type Entry struct {
	ID              int64
	CandidateID     int64
	Priority        int
	ScheduledTime   time.Time
	Status          string
	Attempts        int
	LastAttemptTime *time.Time
	CalledAt        *time.Time
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
