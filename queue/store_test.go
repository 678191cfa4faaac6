package queue

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatchline/recruitpulse/candidate"
	"github.com/hatchline/recruitpulse/internal/phone"
	rptest "github.com/hatchline/recruitpulse/internal/testing"
)

func makeCandidate(t *testing.T, db *sql.DB, phoneNumber string) *candidate.Candidate {
	t.Helper()
	c := &candidate.Candidate{
		Name:          "Test Candidate",
		Phone:         phoneNumber,
		Skills:        "Go, SQL",
		SkillsMatched: "Go",
	}
	require.NoError(t, candidate.NewStore(db).Create(c))
	return c
}

func TestStoreInsertAndHasPending(t *testing.T) {
	db := rptest.CreateTestDB(t)
	store := NewStore(db)
	c := makeCandidate(t, db, "+919876543210")
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	pending, err := store.HasPending(c.ID)
	require.NoError(t, err)
	assert.False(t, pending)

	entry, err := store.Insert(c.ID, 0, now.Add(3*time.Minute))
	require.NoError(t, err)
	require.NotZero(t, entry.ID)

	pending, err = store.HasPending(c.ID)
	require.NoError(t, err)
	assert.True(t, pending)

	fetched, err := store.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, fetched.Status)
	assert.Zero(t, fetched.Attempts)
	assert.Nil(t, fetched.CalledAt)
}

func TestStoreNextEligibleOrdering(t *testing.T) {
	db := rptest.CreateTestDB(t)
	store := NewStore(db)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	early := makeCandidate(t, db, "+919876543210")
	late := makeCandidate(t, db, "+919876543211")
	priority := makeCandidate(t, db, "+919876543212")
	future := makeCandidate(t, db, "+919876543213")

	_, err := store.Insert(early.ID, 0, now.Add(-10*time.Minute))
	require.NoError(t, err)
	_, err = store.Insert(late.ID, 0, now.Add(-5*time.Minute))
	require.NoError(t, err)
	prioEntry, err := store.Insert(priority.ID, 5, now.Add(-time.Minute))
	require.NoError(t, err)
	_, err = store.Insert(future.ID, 0, now.Add(time.Hour))
	require.NoError(t, err)

	// Priority wins over earlier scheduled time
	next, err := store.NextEligible(now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, prioEntry.ID, next.ID)

	claimed, err := store.Claim(prioEntry.ID, now)
	require.NoError(t, err)
	require.True(t, claimed)

	// Then earliest scheduled time among equal priorities
	next, err = store.NextEligible(now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, early.ID, next.CandidateID)
}

func TestStoreNextEligibleSkipsUnusablePhone(t *testing.T) {
	db := rptest.CreateTestDB(t)
	store := NewStore(db)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	c := makeCandidate(t, db, phone.NotAvailable)
	_, err := store.Insert(c.ID, 0, now.Add(-time.Minute))
	require.NoError(t, err)

	next, err := store.NextEligible(now)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestStoreClaimIsAtomic(t *testing.T) {
	db := rptest.CreateTestDB(t)
	store := NewStore(db)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	c := makeCandidate(t, db, "+919876543210")
	entry, err := store.Insert(c.ID, 0, now)
	require.NoError(t, err)

	claimed, err := store.Claim(entry.ID, now)
	require.NoError(t, err)
	assert.True(t, claimed)

	// Second claim loses the conditional update
	claimed, err = store.Claim(entry.ID, now)
	require.NoError(t, err)
	assert.False(t, claimed)

	fetched, err := store.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, fetched.Status)
	require.NotNil(t, fetched.LastAttemptTime)
}

func TestStoreCompletedFeedsRateCount(t *testing.T) {
	db := rptest.CreateTestDB(t)
	store := NewStore(db)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	recent := makeCandidate(t, db, "+919876543210")
	stale := makeCandidate(t, db, "+919876543211")

	recentEntry, err := store.Insert(recent.ID, 0, now)
	require.NoError(t, err)
	staleEntry, err := store.Insert(stale.ID, 0, now)
	require.NoError(t, err)

	require.NoError(t, store.MarkCompleted(recentEntry.ID, now.Add(-30*time.Minute)))
	require.NoError(t, store.MarkCompleted(staleEntry.ID, now.Add(-90*time.Minute)))

	// Only the dispatch inside the trailing hour counts
	count, err := store.CountCompletedSince(now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	fetched, err := store.GetEntry(recentEntry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, fetched.Status)
	assert.Equal(t, 1, fetched.Attempts)
	require.NotNil(t, fetched.CalledAt)
}

func TestStoreRescheduleAndFail(t *testing.T) {
	db := rptest.CreateTestDB(t)
	store := NewStore(db)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	c := makeCandidate(t, db, "+919876543210")
	entry, err := store.Insert(c.ID, 0, now)
	require.NoError(t, err)

	retryAt := now.Add(7 * time.Minute)
	require.NoError(t, store.Reschedule(entry.ID, retryAt, "provider timeout"))

	fetched, err := store.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, fetched.Status)
	assert.Equal(t, 1, fetched.Attempts)
	assert.Equal(t, "provider timeout", fetched.ErrorMessage)
	assert.True(t, fetched.ScheduledTime.Equal(retryAt))

	require.NoError(t, store.MarkFailed(entry.ID, "unreachable"))
	fetched, err = store.GetEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, fetched.Status)
	assert.Equal(t, 2, fetched.Attempts)
}

func TestStoreStats(t *testing.T) {
	db := rptest.CreateTestDB(t)
	store := NewStore(db)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	a := makeCandidate(t, db, "+919876543210")
	b := makeCandidate(t, db, "+919876543211")
	c := makeCandidate(t, db, "+919876543212")

	first, err := store.Insert(a.ID, 0, now.Add(5*time.Minute))
	require.NoError(t, err)
	_, err = store.Insert(b.ID, 0, now.Add(10*time.Minute))
	require.NoError(t, err)
	done, err := store.Insert(c.ID, 0, now)
	require.NoError(t, err)
	require.NoError(t, store.MarkCompleted(done.ID, now))

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 1, stats.Completed)
	require.NotNil(t, stats.NextCallTime)
	assert.True(t, stats.NextCallTime.Equal(first.ScheduledTime))
}

func TestStoreCleanup(t *testing.T) {
	db := rptest.CreateTestDB(t)
	store := NewStore(db)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	live := makeCandidate(t, db, "+919876543210")
	old := makeCandidate(t, db, "+919876543211")

	_, err := store.Insert(live.ID, 0, now)
	require.NoError(t, err)
	oldEntry, err := store.Insert(old.ID, 0, now)
	require.NoError(t, err)
	require.NoError(t, store.MarkCompleted(oldEntry.ID, now))

	// Nothing is older than the retention window yet
	removed, err := store.Cleanup(time.Now().UTC().Add(-7 * 24 * time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)

	// A future cutoff sweeps the terminal entry but never the pending one
	removed, err = store.Cleanup(time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	pending, err := store.HasPending(live.ID)
	require.NoError(t, err)
	assert.True(t, pending)
}
