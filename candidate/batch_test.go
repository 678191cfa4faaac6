package candidate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatchline/recruitpulse/candidate"
	rptest "github.com/hatchline/recruitpulse/internal/testing"
)

func sampleRequirements() candidate.Requirements {
	return candidate.Requirements{
		TargetCompany:        "Hatchline",
		TargetRole:           "Backend Engineer",
		RequiredNoticePeriod: 30,
		BudgetMinLPA:         12,
		BudgetMaxLPA:         25,
		Location:             "Bengaluru",
		MinExperience:        3,
		MaxExperience:        8,
		RequiredSkills:       []string{"Go", "PostgreSQL", "Kubernetes"},
	}
}

func TestBatchCreateAndFind(t *testing.T) {
	db := rptest.CreateTestDB(t)
	store := candidate.NewBatchStore(db)

	created, err := store.Create("batch-2026-03-02", sampleRequirements())
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	found, err := store.FindByBatchID("batch-2026-03-02")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Backend Engineer", found.Requirements.TargetRole)
	assert.Equal(t, []string{"Go", "PostgreSQL", "Kubernetes"}, found.Requirements.RequiredSkills)
	assert.Zero(t, found.TotalResumes)

	missing, err := store.FindByBatchID("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBatchUpdateStats(t *testing.T) {
	db := rptest.CreateTestDB(t)
	store := candidate.NewBatchStore(db)

	_, err := store.Create("batch-1", sampleRequirements())
	require.NoError(t, err)

	stats := candidate.BatchStats{Total: 10, Successful: 6, Duplicates: 2, SkillMismatches: 1, Failed: 1}
	require.NoError(t, store.UpdateStats("batch-1", stats))

	found, err := store.FindByBatchID("batch-1")
	require.NoError(t, err)
	assert.Equal(t, 10, found.TotalResumes)
	assert.Equal(t, 6, found.Successful)
	assert.Equal(t, 2, found.Duplicates)
	assert.Equal(t, 1, found.SkillMismatches)
	assert.Equal(t, 1, found.Failed)

	assert.Error(t, store.UpdateStats("missing", stats))
}

func TestBatchLatest(t *testing.T) {
	db := rptest.CreateTestDB(t)
	store := candidate.NewBatchStore(db)

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = store.Create("batch-1", sampleRequirements())
	require.NoError(t, err)

	latest, err = store.Latest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "batch-1", latest.BatchID)
}

func TestCheckSkillMatch(t *testing.T) {
	req := sampleRequirements()

	// Two of three required skills hit
	match := req.CheckSkillMatch("Golang, PostgreSQL, React")
	assert.True(t, match.IsMatch)
	assert.GreaterOrEqual(t, match.MatchCount, 2)

	// Substring matching works in both directions
	match = req.CheckSkillMatch("golang, kubernetes")
	assert.True(t, match.IsMatch)
	assert.Contains(t, match.MatchedSkills, "Go")
	assert.Contains(t, match.MatchedSkills, "Kubernetes")

	// One match is below the floor
	match = req.CheckSkillMatch("Go, React, Angular")
	assert.False(t, match.IsMatch)
	assert.Equal(t, 1, match.MatchCount)

	// No required skills means everyone passes
	open := candidate.Requirements{}
	assert.True(t, open.CheckSkillMatch("anything").IsMatch)
}

func TestCallLogAppendAndList(t *testing.T) {
	db := rptest.CreateTestDB(t)
	candidates := candidate.NewStore(db)
	logs := candidate.NewCallLogStore(db)

	c := &candidate.Candidate{Name: "Asha", Phone: "+919876543210"}
	require.NoError(t, candidates.Create(c))

	first := &candidate.CallLog{
		CandidateID: c.ID,
		CallType:    candidate.CallTypeScreening,
		RunID:       "run-1",
		Status:      "Completed",
		Transcript:  "agent: hello",
	}
	require.NoError(t, logs.Append(first))
	require.NotZero(t, first.ID)

	second := &candidate.CallLog{
		CandidateID: c.ID,
		CallType:    candidate.CallTypeCallbackRequest,
		RunID:       "run-1",
		Status:      "Callback Requested",
	}
	require.NoError(t, logs.Append(second))

	history, err := logs.ListByCandidate(c.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	// FK enforced: no log for a missing candidate
	orphan := &candidate.CallLog{CandidateID: 99999, CallType: candidate.CallTypeScreening}
	assert.Error(t, logs.Append(orphan))
}
