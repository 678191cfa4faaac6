package queue

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rptest "github.com/hatchline/recruitpulse/internal/testing"
)

var gateConfig = GateConfig{MaxCallsPerHour: 6, StartHour: 9, EndHour: 18}

func gateAt(store *Store, at time.Time) *RateGate {
	return NewRateGateWithClock(store, gateConfig, func() time.Time { return at })
}

func TestRateGateOutsideWorkingHours(t *testing.T) {
	db := rptest.CreateTestDB(t)
	store := NewStore(db)

	// Before the window: next slot is today's start
	early := time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)
	verdict, err := gateAt(store, early).CanDispatch()
	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, "outside working hours", verdict.Reason)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), verdict.NextEligibleAt)

	// At the window end: next slot is tomorrow's start
	late := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	verdict, err = gateAt(store, late).CanDispatch()
	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC), verdict.NextEligibleAt)
}

func TestRateGateHourlyCap(t *testing.T) {
	db := rptest.CreateTestDB(t)
	store := NewStore(db)
	now := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)

	// Five completed dispatches inside the trailing hour: one slot left
	for i := 0; i < 5; i++ {
		c := makeCandidate(t, db, fmt.Sprintf("+9198765432%d0", i+1))
		entry, err := store.Insert(c.ID, 0, now)
		require.NoError(t, err)
		require.NoError(t, store.MarkCompleted(entry.ID, now.Add(-time.Duration(i+1)*5*time.Minute)))
	}

	verdict, err := gateAt(store, now).CanDispatch()
	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
	assert.Equal(t, 5, verdict.CallsInLastHour)
	assert.Equal(t, 1, verdict.RemainingSlots)

	// Sixth call fills the window
	c := makeCandidate(t, db, "+919876543290")
	entry, err := store.Insert(c.ID, 0, now)
	require.NoError(t, err)
	require.NoError(t, store.MarkCompleted(entry.ID, now.Add(-time.Minute)))

	verdict, err = gateAt(store, now).CanDispatch()
	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, "hourly call limit reached", verdict.Reason)
	assert.Equal(t, now.Add(retryCheckInterval), verdict.NextEligibleAt)

	// An hour later the window has drained
	verdict, err = gateAt(store, now.Add(61*time.Minute)).CanDispatch()
	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
	assert.Equal(t, 0, verdict.CallsInLastHour)
}

func TestRateGateStoreError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery("SELECT COUNT").WillReturnError(assert.AnError)

	now := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	gate := gateAt(NewStore(mockDB), now)

	_, err = gate.CanDispatch()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to count calls in window")
	assert.NoError(t, mock.ExpectationsWereMet())
}
