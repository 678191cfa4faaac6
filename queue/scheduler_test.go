package queue

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hatchline/recruitpulse/candidate"
	"github.com/hatchline/recruitpulse/followup"
	rptest "github.com/hatchline/recruitpulse/internal/testing"
	"github.com/hatchline/recruitpulse/internal/util"
)

type fakeDialer struct {
	runID      string
	err        error
	calls      int
	lastPhone  string
	lastPrompt string
}

func (d *fakeDialer) PlaceCall(_ context.Context, phone, promptText string) (string, error) {
	d.calls++
	d.lastPhone = phone
	d.lastPrompt = promptText
	return d.runID, d.err
}

var schedulerConfig = SchedulerConfig{
	MinDelay:  3 * time.Minute,
	MaxDelay:  10 * time.Minute,
	StartHour: 9,
	EndHour:   18,
}

func newTestScheduler(t *testing.T, db *sql.DB, dialer Dialer, at time.Time) *Scheduler {
	t.Helper()
	store := NewStore(db)
	s := NewScheduler(store, candidate.NewStore(db), candidate.NewBatchStore(db),
		dialer, gateAt(store, at), schedulerConfig, zap.NewNop().Sugar())
	s.timeNow = func() time.Time { return at }
	s.rng = rand.New(rand.NewSource(1))
	return s
}

func TestEnqueueMonotonicJitteredSpacing(t *testing.T) {
	db := rptest.CreateTestDB(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	s := newTestScheduler(t, db, &fakeDialer{}, now)

	var ids []int64
	for i := 0; i < 5; i++ {
		c := makeCandidate(t, db, fmt.Sprintf("+9198765432%d0", i+1))
		ids = append(ids, c.ID)
	}

	result, err := s.Enqueue(ids, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Added)
	assert.Zero(t, result.Skipped)

	var entries []*Entry
	for _, id := range ids {
		rows, err := db.Query(`SELECT `+entryColumns+` FROM call_queue WHERE candidate_id = ?`, id)
		require.NoError(t, err)
		for rows.Next() {
			e, err := scanEntry(rows)
			require.NoError(t, err)
			entries = append(entries, e)
		}
		require.NoError(t, rows.Close())
	}
	require.Len(t, entries, 5)

	// First entry sits at now + MinDelay
	assert.True(t, entries[0].ScheduledTime.Equal(now.Add(schedulerConfig.MinDelay)))

	// Spacing is strictly increasing and bounded by the jitter range
	for i := 1; i < len(entries); i++ {
		gap := entries[i].ScheduledTime.Sub(entries[i-1].ScheduledTime)
		assert.GreaterOrEqual(t, gap, schedulerConfig.MinDelay)
		assert.LessOrEqual(t, gap, schedulerConfig.MaxDelay)
	}
}

func TestEnqueueSkipsAlreadyPending(t *testing.T) {
	db := rptest.CreateTestDB(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	s := newTestScheduler(t, db, &fakeDialer{}, now)

	c := makeCandidate(t, db, "+919876543210")

	result, err := s.Enqueue([]int64{c.ID}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)

	result, err = s.Enqueue([]int64{c.ID}, 0)
	require.NoError(t, err)
	assert.Zero(t, result.Added)
	assert.Equal(t, 1, result.Skipped)
}

func TestEnqueueOutsideHoursRollsToWindowStart(t *testing.T) {
	db := rptest.CreateTestDB(t)
	evening := time.Date(2026, 3, 2, 19, 30, 0, 0, time.UTC)
	s := newTestScheduler(t, db, &fakeDialer{}, evening)

	c := makeCandidate(t, db, "+919876543210")
	_, err := s.Enqueue([]int64{c.ID}, 0)
	require.NoError(t, err)

	entry, err := s.store.NextEligible(time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.ScheduledTime.Equal(time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)))
}

func TestTickHappyPath(t *testing.T) {
	db := rptest.CreateTestDB(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	dialer := &fakeDialer{runID: "run-abc"}
	s := newTestScheduler(t, db, dialer, now)

	c := makeCandidate(t, db, "+919876543210")
	entry, err := s.store.Insert(c.ID, 0, now.Add(-time.Minute))
	require.NoError(t, err)

	result, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Called)
	assert.Equal(t, "run-abc", result.RunID)
	assert.Equal(t, c.ID, result.CandidateID)

	assert.Equal(t, 1, dialer.calls)
	assert.Equal(t, "+919876543210", dialer.lastPhone)
	assert.Contains(t, dialer.lastPrompt, "Test Candidate")

	fetched, err := s.store.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, fetched.Status)
	require.NotNil(t, fetched.CalledAt)

	updated, err := s.candidates.FindByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, candidate.StatusCallingScreening, updated.Status)
	assert.Equal(t, "run-abc", updated.ScreeningRunID)
}

func TestTickDeniedByRateGate(t *testing.T) {
	db := rptest.CreateTestDB(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	dialer := &fakeDialer{runID: "run-abc"}
	s := newTestScheduler(t, db, dialer, now)

	// Fill the rolling-hour window
	for i := 0; i < gateConfig.MaxCallsPerHour; i++ {
		c := makeCandidate(t, db, fmt.Sprintf("+9198765431%d0", i+1))
		entry, err := s.store.Insert(c.ID, 0, now)
		require.NoError(t, err)
		require.NoError(t, s.store.MarkCompleted(entry.ID, now.Add(-10*time.Minute)))
	}

	waiting := makeCandidate(t, db, "+919876543290")
	entry, err := s.store.Insert(waiting.ID, 0, now.Add(-time.Minute))
	require.NoError(t, err)

	result, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Called)
	assert.Equal(t, "hourly call limit reached", result.Reason)

	// The waiting entry is untouched
	assert.Zero(t, dialer.calls)
	fetched, err := s.store.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, fetched.Status)
}

func TestTickOutsideWorkingHours(t *testing.T) {
	db := rptest.CreateTestDB(t)
	night := time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC)
	dialer := &fakeDialer{runID: "run-abc"}
	s := newTestScheduler(t, db, dialer, night)

	c := makeCandidate(t, db, "+919876543210")
	_, err := s.store.Insert(c.ID, 0, night.Add(-time.Minute))
	require.NoError(t, err)

	result, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Called)
	assert.Equal(t, "outside working hours", result.Reason)
	assert.Zero(t, dialer.calls)
}

func TestTickEmptyQueue(t *testing.T) {
	db := rptest.CreateTestDB(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	s := newTestScheduler(t, db, &fakeDialer{}, now)

	result, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Called)
	assert.Equal(t, "no candidates due", result.Reason)
}

func TestTickDialFailureReschedules(t *testing.T) {
	db := rptest.CreateTestDB(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	dialer := &fakeDialer{err: assert.AnError}
	s := newTestScheduler(t, db, dialer, now)

	c := makeCandidate(t, db, "+919876543210")
	entry, err := s.store.Insert(c.ID, 0, now.Add(-time.Minute))
	require.NoError(t, err)

	result, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Called)

	fetched, err := s.store.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, fetched.Status)
	assert.Equal(t, 1, fetched.Attempts)
	assert.True(t, fetched.ScheduledTime.After(now))

	// Candidate is untouched until the retry ceiling
	updated, err := s.candidates.FindByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, candidate.StatusNew, updated.Status)
}

// exhaustEntry drives one queue entry through every dial retry. Rescheduled
// slots land in the future, so the clock fast-forwards past each one. Returns
// the time of the final failing tick.
func exhaustEntry(t *testing.T, s *Scheduler, now time.Time) time.Time {
	t.Helper()
	var at time.Time
	for i := 0; i < MaxEntryAttempts; i++ {
		at = now.Add(time.Duration(i) * time.Hour)
		s.timeNow = func() time.Time { return at }
		s.gate = gateAt(s.store, at)

		result, err := s.Tick(context.Background())
		require.NoError(t, err)
		assert.False(t, result.Called)
	}
	return at
}

func TestTickEntryExhaustionSchedulesFollowUp(t *testing.T) {
	db := rptest.CreateTestDB(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	dialer := &fakeDialer{err: assert.AnError}
	s := newTestScheduler(t, db, dialer, now)

	c := makeCandidate(t, db, "+919876543210")
	entry, err := s.store.Insert(c.ID, 0, now.Add(-time.Minute))
	require.NoError(t, err)

	last := exhaustEntry(t, s, now)

	fetched, err := s.store.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, fetched.Status)
	assert.Equal(t, MaxEntryAttempts, fetched.Attempts)

	// First exhausted round earns a follow-up slot, not a terminal status.
	updated, err := s.candidates.FindByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, candidate.StatusFollowUpScheduled, updated.Status)
	assert.Equal(t, candidate.CallStatusFailed, updated.CallStatus)
	assert.Equal(t, 1, updated.FailedAttempts)
	require.NotNil(t, updated.FollowUpTime)
	assert.Equal(t, followup.NextFollowUpSlot(last), updated.FollowUpTime.UTC())
}

func TestTickMaxAttemptsFailsPermanently(t *testing.T) {
	db := rptest.CreateTestDB(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	dialer := &fakeDialer{err: assert.AnError}
	s := newTestScheduler(t, db, dialer, now)

	c := makeCandidate(t, db, "+919876543210")
	require.NoError(t, s.candidates.Update(c.ID, candidate.Updates{
		FailedAttempts: util.Ptr(MaxCallAttempts - 1),
	}))
	_, err := s.store.Insert(c.ID, 0, now.Add(-time.Minute))
	require.NoError(t, err)

	exhaustEntry(t, s, now)

	updated, err := s.candidates.FindByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, candidate.StatusNoResponse, updated.Status)
	assert.Equal(t, candidate.CallStatusFailed, updated.CallStatus)
	assert.Equal(t, MaxCallAttempts, updated.FailedAttempts)
}

func TestTickNoRunIDCountsAsFailure(t *testing.T) {
	db := rptest.CreateTestDB(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	dialer := &fakeDialer{runID: ""}
	s := newTestScheduler(t, db, dialer, now)

	c := makeCandidate(t, db, "+919876543210")
	entry, err := s.store.Insert(c.ID, 0, now.Add(-time.Minute))
	require.NoError(t, err)

	result, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Called)

	fetched, err := s.store.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, fetched.Status)
	assert.Contains(t, fetched.ErrorMessage, "no run id")
}
