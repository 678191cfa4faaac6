// Package ingest runs the resume intake pipeline: parse, normalize, dedup,
// skill-match, persist, enqueue.
package ingest

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hatchline/recruitpulse/candidate"
	"github.com/hatchline/recruitpulse/internal/phone"
	"github.com/hatchline/recruitpulse/llm"
	"github.com/hatchline/recruitpulse/queue"
)

// Parser extracts a structured profile from raw resume text. Satisfied by
// llm.Client.
type Parser interface {
	ParseResume(ctx context.Context, resumeText string) (*llm.Profile, error)
}

// Enqueuer adds candidates to the call queue. Satisfied by queue.Scheduler.
type Enqueuer interface {
	Enqueue(candidateIDs []int64, priority int) (*queue.EnqueueResult, error)
}

// ResumeResult is the outcome for one resume in a batch.
type ResumeResult struct {
	Name          string `json:"name,omitempty"`
	CandidateID   int64  `json:"candidate_id,omitempty"`
	Success       bool   `json:"success"`
	Duplicate     bool   `json:"duplicate,omitempty"`
	SkillMismatch bool   `json:"skill_mismatch,omitempty"`
	Error         string `json:"error,omitempty"`
}

// BatchResult is the outcome of one ingestion run.
type BatchResult struct {
	BatchID  string               `json:"batch_id"`
	Stats    candidate.BatchStats `json:"stats"`
	Results  []ResumeResult       `json:"results"`
	Enqueued *queue.EnqueueResult `json:"enqueued,omitempty"`
}

// Pipeline turns raw resume texts into queued candidates.
type Pipeline struct {
	candidates *candidate.Store
	batches    *candidate.BatchStore
	parser     Parser
	enqueuer   Enqueuer
	logger     *zap.SugaredLogger

	timeNow func() time.Time // Injectable for testing
}

// NewPipeline wires the intake pipeline.
func NewPipeline(candidates *candidate.Store, batches *candidate.BatchStore,
	parser Parser, enqueuer Enqueuer, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		candidates: candidates,
		batches:    batches,
		parser:     parser,
		enqueuer:   enqueuer,
		logger:     logger,
		timeNow:    time.Now,
	}
}

// Run ingests a batch of resume texts against one requirements snapshot.
// Duplicates and skill mismatches are batch statistics, not errors: the run
// keeps going and reports per-resume outcomes.
func (p *Pipeline) Run(ctx context.Context, resumeTexts []string, req candidate.Requirements) (*BatchResult, error) {
	batchID := strconv.FormatInt(p.timeNow().UnixMilli(), 10)
	if _, err := p.batches.Create(batchID, req); err != nil {
		return nil, err
	}

	result := &BatchResult{BatchID: batchID}
	result.Stats.Total = len(resumeTexts)
	var matched []int64

	for _, text := range resumeTexts {
		r := p.ingestOne(ctx, text, batchID, req)
		result.Results = append(result.Results, r)

		switch {
		case r.Duplicate:
			result.Stats.Duplicates++
		case r.Error != "":
			result.Stats.Failed++
		default:
			result.Stats.Successful++
			if r.SkillMismatch {
				result.Stats.SkillMismatches++
			} else {
				matched = append(matched, r.CandidateID)
			}
		}
	}

	if len(matched) > 0 {
		enqueued, err := p.enqueuer.Enqueue(matched, 0)
		if err != nil {
			return nil, err
		}
		result.Enqueued = enqueued
	}

	if err := p.batches.UpdateStats(batchID, result.Stats); err != nil {
		return nil, err
	}

	p.logger.Infow("Batch ingested",
		"batch_id", batchID,
		"total", result.Stats.Total,
		"successful", result.Stats.Successful,
		"duplicates", result.Stats.Duplicates,
		"skill_mismatches", result.Stats.SkillMismatches,
		"failed", result.Stats.Failed,
	)
	return result, nil
}

func (p *Pipeline) ingestOne(ctx context.Context, text, batchID string, req candidate.Requirements) ResumeResult {
	profile, err := p.parser.ParseResume(ctx, text)
	if err != nil {
		p.logger.Warnw("Resume parse failed", "error", err)
		return ResumeResult{Error: err.Error()}
	}

	normalized := phone.Normalize(profile.Phone)
	if normalized == "" {
		return ResumeResult{Name: profile.Name, Error: "no valid phone number"}
	}

	existing, err := p.candidates.FindByPhone(normalized)
	if err != nil {
		return ResumeResult{Name: profile.Name, Error: err.Error()}
	}
	if existing != nil {
		p.logger.Infow("Duplicate resume skipped",
			"name", profile.Name,
			"phone", normalized,
			"existing_id", existing.ID,
		)
		return ResumeResult{Name: profile.Name, CandidateID: existing.ID, Duplicate: true}
	}

	match := req.CheckSkillMatch(profile.Skills)

	c := &candidate.Candidate{
		Name:              nameFor(profile),
		Phone:             normalized,
		Email:             profile.Email,
		Skills:            profile.Skills,
		YearsOfExperience: profile.YearsOfExperience,
		CurrentCompany:    profile.CurrentCompany,
		NoticePeriod:      profile.NoticePeriod,
		BatchID:           batchID,
	}
	if match.IsMatch {
		c.SkillsMatched = strings.Join(match.MatchedSkills, ", ")
	}

	if err := p.candidates.Create(c); err != nil {
		return ResumeResult{Name: c.Name, Error: err.Error()}
	}

	if !match.IsMatch {
		p.logger.Infow("Skill mismatch, candidate parked",
			"candidate_id", c.ID,
			"matched", match.MatchCount,
			"needed", candidate.MinSkillMatches,
		)
		return ResumeResult{Name: c.Name, CandidateID: c.ID, Success: true, SkillMismatch: true}
	}

	return ResumeResult{Name: c.Name, CandidateID: c.ID, Success: true}
}

// nameFor falls back to the email local part when the parser found no name.
func nameFor(profile *llm.Profile) string {
	if profile.Name != "" {
		return profile.Name
	}
	if at := strings.Index(profile.Email, "@"); at > 0 {
		local := profile.Email[:at]
		local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
		words := strings.Fields(local)
		for i, w := range words {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
		if len(words) > 0 {
			return strings.Join(words, " ")
		}
	}
	return "Unknown Candidate"
}
