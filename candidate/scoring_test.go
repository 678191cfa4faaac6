package candidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorecardOverall(t *testing.T) {
	full := Scorecard{
		NoticePeriod:  MaxNoticePeriodScore,
		Budget:        MaxBudgetScore,
		Location:      MaxLocationScore,
		Experience:    MaxExperienceScore,
		Technical:     MaxTechnicalScore,
		Communication: MaxCommunicationScore,
	}
	assert.Equal(t, 100.0, full.Overall())

	assert.Equal(t, 0.0, Scorecard{}.Overall())

	// Exactly at the default qualification threshold
	sc := Scorecard{NoticePeriod: 10, Budget: 10, Location: 5, Experience: 10, Technical: 5, Communication: 5}
	assert.Equal(t, 45, sc.Total())
	assert.Equal(t, 45.0, sc.Overall())
}

func TestScorecardClamp(t *testing.T) {
	sc := Scorecard{
		NoticePeriod:  200,
		Budget:        -5,
		Location:      MaxLocationScore,
		Experience:    MaxExperienceScore + 1,
		Technical:     12,
		Communication: 3,
	}

	clamped := sc.Clamp()
	assert.Equal(t, MaxNoticePeriodScore, clamped.NoticePeriod)
	assert.Equal(t, 0, clamped.Budget)
	assert.Equal(t, MaxLocationScore, clamped.Location)
	assert.Equal(t, MaxExperienceScore, clamped.Experience)
	assert.Equal(t, 12, clamped.Technical)
	assert.Equal(t, 3, clamped.Communication)

	// Clamped overall can never exceed 100
	assert.LessOrEqual(t, clamped.Overall(), 100.0)
}
