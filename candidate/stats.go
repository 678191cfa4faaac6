package candidate

import (
	"database/sql"
	"strings"

	"github.com/hatchline/recruitpulse/errors"
)

// Stats is the status rollup surfaced by the stats API and CLI.
type Stats struct {
	Total     int `json:"total"`
	New       int `json:"new"`
	Calling   int `json:"calling"`
	Completed int `json:"completed"`
	Qualified int `json:"qualified"`
	Rejected  int `json:"rejected"`
	Scheduled int `json:"scheduled"`
	Failed    int `json:"failed"`
}

// Stats aggregates candidate counts by status bucket, optionally scoped to a
// batch. Bucketing is by substring so every status variant lands somewhere.
func (s *Store) Stats(batchID string) (*Stats, error) {
	query := `SELECT status, COUNT(*) FROM candidates GROUP BY status`
	var args []any
	if batchID != "" {
		query = `SELECT status, COUNT(*) FROM candidates WHERE batch_id = ? GROUP BY status`
		args = append(args, batchID)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get candidate stats")
	}
	defer rows.Close()

	stats := &Stats{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan stats row")
		}

		stats.Total += count
		lower := strings.ToLower(status)
		switch {
		case lower == "new":
			stats.New += count
		case strings.Contains(lower, "calling"):
			stats.Calling += count
		case strings.Contains(lower, "qualified"):
			stats.Qualified += count
		case strings.Contains(lower, "rejected"):
			stats.Rejected += count
		case strings.Contains(lower, "scheduled"):
			stats.Scheduled += count
		case strings.Contains(lower, "completed"):
			stats.Completed += count
		case strings.Contains(lower, "failed") || strings.Contains(lower, "no response"):
			stats.Failed += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating stats rows")
	}

	return stats, nil
}

// ScoreDistribution summarizes overall qualification scores, optionally
// scoped to a batch. Band edges follow the qualification threshold (45) and
// the strong-candidate line (70).
type ScoreDistribution struct {
	Scored        int      `json:"scored"`
	HighScorers   int      `json:"high_scorers"`
	MediumScorers int      `json:"medium_scorers"`
	LowScorers    int      `json:"low_scorers"`
	AvgScore      *float64 `json:"avg_score"`
	MaxScore      *float64 `json:"max_score"`
	MinScore      *float64 `json:"min_score"`
}

func (s *Store) ScoreDistribution(batchID string) (*ScoreDistribution, error) {
	query := `
		SELECT
			COUNT(overall_qualification_score),
			COUNT(CASE WHEN overall_qualification_score >= 70 THEN 1 END),
			COUNT(CASE WHEN overall_qualification_score >= 45 AND overall_qualification_score < 70 THEN 1 END),
			COUNT(CASE WHEN overall_qualification_score < 45 THEN 1 END),
			AVG(overall_qualification_score),
			MAX(overall_qualification_score),
			MIN(overall_qualification_score)
		FROM candidates
	`
	var args []any
	if batchID != "" {
		query += ` WHERE batch_id = ?`
		args = append(args, batchID)
	}

	var dist ScoreDistribution
	var avg, max, min sql.NullFloat64
	err := s.db.QueryRow(query, args...).Scan(
		&dist.Scored, &dist.HighScorers, &dist.MediumScorers, &dist.LowScorers,
		&avg, &max, &min,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get score distribution")
	}

	if avg.Valid {
		dist.AvgScore = &avg.Float64
	}
	if max.Valid {
		dist.MaxScore = &max.Float64
	}
	if min.Valid {
		dist.MinScore = &min.Float64
	}

	return &dist, nil
}
