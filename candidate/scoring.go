package candidate

import "math"

// Per-criterion score ceilings. The weights sum to 100 so the overall score
// is directly comparable to the qualification threshold.
const (
	MaxNoticePeriodScore  = 15
	MaxBudgetScore        = 15
	MaxLocationScore      = 10
	MaxExperienceScore    = 20
	MaxTechnicalScore     = 30
	MaxCommunicationScore = 10

	// MaxPossibleScore is the denominator for the derived overall score.
	MaxPossibleScore = MaxNoticePeriodScore + MaxBudgetScore + MaxLocationScore +
		MaxExperienceScore + MaxTechnicalScore + MaxCommunicationScore
)

// Scorecard holds the per-criterion screening scores. The overall
// qualification score is always derived from these via Overall and is never
// stored independently of them.
type Scorecard struct {
	NoticePeriod  int
	Budget        int
	Location      int
	Experience    int
	Technical     int
	Communication int
}

// Clamp bounds every criterion to [0, max]. Scores come back from an LLM and
// cannot be trusted to respect the ceilings.
func (s Scorecard) Clamp() Scorecard {
	return Scorecard{
		NoticePeriod:  clamp(s.NoticePeriod, MaxNoticePeriodScore),
		Budget:        clamp(s.Budget, MaxBudgetScore),
		Location:      clamp(s.Location, MaxLocationScore),
		Experience:    clamp(s.Experience, MaxExperienceScore),
		Technical:     clamp(s.Technical, MaxTechnicalScore),
		Communication: clamp(s.Communication, MaxCommunicationScore),
	}
}

// Total is the raw criterion sum out of MaxPossibleScore.
func (s Scorecard) Total() int {
	return s.NoticePeriod + s.Budget + s.Location + s.Experience + s.Technical + s.Communication
}

// Overall scales the criterion sum to 0-100, rounded to two decimals.
func (s Scorecard) Overall() float64 {
	overall := float64(s.Total()) / float64(MaxPossibleScore) * 100
	return math.Round(overall*100) / 100
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
