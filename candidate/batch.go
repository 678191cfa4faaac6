package candidate

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/hatchline/recruitpulse/errors"
)

// Requirements is the job-requirements snapshot captured on a batch at
// creation. It is immutable afterwards: new requirements mean a new batch.
type Requirements struct {
	TargetCompany        string   `json:"target_company"`
	TargetRole           string   `json:"target_role"`
	RequiredNoticePeriod int      `json:"required_notice_period"`
	BudgetMinLPA         float64  `json:"budget_min_lpa"`
	BudgetMaxLPA         float64  `json:"budget_max_lpa"`
	Location             string   `json:"location"`
	MinExperience        int      `json:"min_experience"`
	MaxExperience        int      `json:"max_experience"`
	RequiredSkills       []string `json:"required_skills"`
}

// SkillMatch is the outcome of matching a candidate's skills against the
// batch requirements.
type SkillMatch struct {
	IsMatch       bool
	MatchedSkills []string
	MatchCount    int
}

// MinSkillMatches is how many required skills a candidate must hit to be
// dialable.
const MinSkillMatches = 2

// CheckSkillMatch compares a comma-separated candidate skill list against
// the required skills. Matching is case-insensitive substring in either
// direction ("reactjs" matches required "React"). No required skills means
// everyone matches.
func (r Requirements) CheckSkillMatch(candidateSkills string) SkillMatch {
	if len(r.RequiredSkills) == 0 {
		return SkillMatch{IsMatch: true}
	}

	var candidateList []string
	for _, s := range strings.Split(candidateSkills, ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			candidateList = append(candidateList, s)
		}
	}

	var matched []string
	seen := make(map[string]bool)
	for _, required := range r.RequiredSkills {
		normalized := strings.ToLower(strings.TrimSpace(required))
		for _, cs := range candidateList {
			if strings.Contains(cs, normalized) || strings.Contains(normalized, cs) {
				if !seen[required] {
					seen[required] = true
					matched = append(matched, required)
				}
				break
			}
		}
	}

	return SkillMatch{
		IsMatch:       len(matched) >= MinSkillMatches,
		MatchedSkills: matched,
		MatchCount:    len(matched),
	}
}

// Batch tracks one resume upload and its outcome counters.
type Batch struct {
	ID              int64
	BatchID         string
	TotalResumes    int
	Successful      int
	Duplicates      int
	SkillMismatches int
	Failed          int
	Requirements    Requirements
	CreatedAt       time.Time
}

// BatchStore handles persistence of upload batches
type BatchStore struct {
	db *sql.DB
}

// NewBatchStore creates a new batch store
func NewBatchStore(db *sql.DB) *BatchStore {
	return &BatchStore{db: db}
}

// Create inserts a batch with its requirements snapshot. Counters start at
// zero and are written back by UpdateStats once ingestion finishes.
func (s *BatchStore) Create(batchID string, req Requirements) (*Batch, error) {
	skillsJSON, err := json.Marshal(req.RequiredSkills)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal required skills")
	}

	query := `
		INSERT INTO batches (
			batch_id, target_company, target_role, required_notice_period,
			budget_min_lpa, budget_max_lpa, location,
			min_experience, max_experience, required_skills
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		batchID,
		nullable(req.TargetCompany),
		nullable(req.TargetRole),
		req.RequiredNoticePeriod,
		req.BudgetMinLPA,
		req.BudgetMaxLPA,
		nullable(req.Location),
		req.MinExperience,
		req.MaxExperience,
		string(skillsJSON),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create batch")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get batch id")
	}

	return &Batch{ID: id, BatchID: batchID, Requirements: req}, nil
}

// BatchStats are the ingestion outcome counters for one batch.
type BatchStats struct {
	Total           int `json:"total"`
	Successful      int `json:"successful"`
	Duplicates      int `json:"duplicates"`
	SkillMismatches int `json:"skill_mismatches"`
	Failed          int `json:"failed"`
}

// UpdateStats writes the final ingestion counters for a batch.
func (s *BatchStore) UpdateStats(batchID string, stats BatchStats) error {
	query := `
		UPDATE batches
		SET total_resumes = ?,
		    successful = ?,
		    duplicates = ?,
		    skill_mismatches = ?,
		    failed = ?
		WHERE batch_id = ?
	`

	result, err := s.db.Exec(query,
		stats.Total, stats.Successful, stats.Duplicates,
		stats.SkillMismatches, stats.Failed, batchID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update batch stats")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return errors.Newf("batch not found: %s", batchID)
	}

	return nil
}

const batchColumns = `
	id, batch_id, total_resumes, successful, duplicates, skill_mismatches, failed,
	target_company, target_role, required_notice_period,
	budget_min_lpa, budget_max_lpa, location,
	min_experience, max_experience, required_skills, created_at`

func scanBatch(row scanner) (*Batch, error) {
	var b Batch
	var company, role, location, skillsJSON sql.NullString
	var noticePeriod, minExp, maxExp sql.NullInt64
	var budgetMin, budgetMax sql.NullFloat64

	err := row.Scan(
		&b.ID, &b.BatchID, &b.TotalResumes, &b.Successful, &b.Duplicates,
		&b.SkillMismatches, &b.Failed,
		&company, &role, &noticePeriod,
		&budgetMin, &budgetMax, &location,
		&minExp, &maxExp, &skillsJSON, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Requirements = Requirements{
		TargetCompany:        company.String,
		TargetRole:           role.String,
		RequiredNoticePeriod: int(noticePeriod.Int64),
		BudgetMinLPA:         budgetMin.Float64,
		BudgetMaxLPA:         budgetMax.Float64,
		Location:             location.String,
		MinExperience:        int(minExp.Int64),
		MaxExperience:        int(maxExp.Int64),
	}
	if skillsJSON.Valid && skillsJSON.String != "" {
		if err := json.Unmarshal([]byte(skillsJSON.String), &b.Requirements.RequiredSkills); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal required skills")
		}
	}

	return &b, nil
}

// FindByBatchID retrieves a batch by its external batch id. Returns nil when
// the batch does not exist.
func (s *BatchStore) FindByBatchID(batchID string) (*Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE batch_id = ?`

	b, err := scanBatch(s.db.QueryRow(query, batchID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find batch")
	}
	return b, nil
}

// Latest returns the most recently created batch, or nil when none exist.
func (s *BatchStore) Latest() (*Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches ORDER BY created_at DESC LIMIT 1`

	b, err := scanBatch(s.db.QueryRow(query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest batch")
	}
	return b, nil
}

// ListAll returns every batch, newest first.
func (s *BatchStore) ListAll() ([]*Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches ORDER BY created_at DESC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list batches")
	}
	defer rows.Close()

	var batches []*Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan batch")
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating batches")
	}

	return batches, nil
}
