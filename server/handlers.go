package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hatchline/recruitpulse/candidate"
	"github.com/hatchline/recruitpulse/errors"
	"github.com/hatchline/recruitpulse/webhook"
)

// maxWebhookBody caps provider payloads. Transcripts are large but never
// megabytes.
const maxWebhookBody = 1 << 20

// HandleCallEvents receives call provider webhooks.
// Every delivery is acknowledged unless the payload is undecodable or
// carries no run id; a 5xx keeps the provider retrying, which is the right
// outcome for transient store failures because processed runs are marked
// only after a successful pass.
func (s *Server) HandleCallEvents(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeWrappedError(w, s.logger, err, "failed to read webhook body", http.StatusBadRequest)
		return
	}

	result, err := s.dispatcher.HandleEvent(r.Context(), body)
	if err != nil {
		if errors.Is(err, webhook.ErrMissingRunID) {
			writeError(w, http.StatusBadRequest, "webhook payload carries no run id")
			return
		}
		if errors.Is(err, webhook.ErrInvalidPayload) {
			writeWrappedError(w, s.logger, err, "invalid webhook body", http.StatusBadRequest)
			return
		}
		writeWrappedError(w, s.logger, err, "failed to process webhook", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleRecentWebhooks returns the last received raw payloads, newest first.
func (s *Server) HandleRecentWebhooks(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	received := s.recent.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"webhooks": received,
		"count":    len(received),
	})
}

// HandleCandidateAction routes /api/candidates/{id}/call.
func (s *Server) HandleCandidateAction(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/candidates/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		writeError(w, http.StatusBadRequest, "Missing candidate ID")
		return
	}

	candidateID, err := strconv.ParseInt(pathParts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid candidate ID")
		return
	}

	if len(pathParts) > 1 && pathParts[1] == "call" {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		s.handleManualCall(w, r, candidateID)
		return
	}

	writeError(w, http.StatusNotFound, "Unknown candidate action")
}

// handleManualCall queues a single candidate ahead of the batch ordering.
func (s *Server) handleManualCall(w http.ResponseWriter, r *http.Request, candidateID int64) {
	c, err := s.candidates.FindByID(candidateID)
	if err != nil {
		if errors.Is(err, candidate.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Candidate not found")
			return
		}
		writeWrappedError(w, s.logger, err, "failed to load candidate", http.StatusInternalServerError)
		return
	}

	result, err := s.scheduler.Enqueue([]int64{c.ID}, 1)
	if err != nil {
		writeWrappedError(w, s.logger, err, "failed to queue call", http.StatusInternalServerError)
		return
	}

	s.logger.Infow("Manual call queued",
		"candidate_id", c.ID,
		"added", result.Added,
		"skipped", result.Skipped)
	writeJSON(w, http.StatusOK, result)
}

// HandleCallPending queues every candidate that has never been dialed.
func (s *Server) HandleCallPending(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	pending, err := s.candidates.ListPending()
	if err != nil {
		writeWrappedError(w, s.logger, err, "failed to list pending candidates", http.StatusInternalServerError)
		return
	}

	ids := make([]int64, 0, len(pending))
	for _, c := range pending {
		ids = append(ids, c.ID)
	}

	result, err := s.scheduler.Enqueue(ids, 0)
	if err != nil {
		writeWrappedError(w, s.logger, err, "failed to queue pending candidates", http.StatusInternalServerError)
		return
	}

	s.logger.Infow("Pending candidates queued",
		"pending", len(pending),
		"added", result.Added,
		"skipped", result.Skipped)
	writeJSON(w, http.StatusOK, CallPendingResponse{
		Pending: len(pending),
		Added:   result.Added,
		Skipped: result.Skipped,
	})
}

// HandleCandidates lists candidates filtered by batch_id, status, and
// min_score query parameters.
func (s *Server) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	filter := candidate.Filter{
		BatchID: r.URL.Query().Get("batch_id"),
		Status:  r.URL.Query().Get("status"),
	}
	if raw := r.URL.Query().Get("min_score"); raw != "" {
		minScore, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid min_score")
			return
		}
		filter.MinScore = &minScore
	}

	matches, err := s.candidates.List(filter)
	if err != nil {
		writeWrappedError(w, s.logger, err, "failed to list candidates", http.StatusInternalServerError)
		return
	}

	response := ListCandidatesResponse{
		Candidates: make([]CandidateResponse, 0, len(matches)),
		Count:      len(matches),
	}
	for _, c := range matches {
		response.Candidates = append(response.Candidates, toCandidateResponse(c))
	}

	writeJSON(w, http.StatusOK, response)
}

// HandleStats reports status buckets and the score distribution, optionally
// scoped to one batch.
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	batchID := r.URL.Query().Get("batch_id")

	stats, err := s.candidates.Stats(batchID)
	if err != nil {
		writeWrappedError(w, s.logger, err, "failed to compute candidate stats", http.StatusInternalServerError)
		return
	}
	distribution, err := s.candidates.ScoreDistribution(batchID)
	if err != nil {
		writeWrappedError(w, s.logger, err, "failed to compute score distribution", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		BatchID:      batchID,
		Stats:        stats,
		Distribution: distribution,
	})
}

// HandleQueueStats reports queue depth by status and the next scheduled
// call time.
func (s *Server) HandleQueueStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	stats, err := s.queueStore.Stats()
	if err != nil {
		writeWrappedError(w, s.logger, err, "failed to compute queue stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// HandleIngest runs a resume batch through parsing, dedup, skill matching,
// and queueing.
func (s *Server) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req IngestRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	if len(req.Resumes) == 0 {
		writeError(w, http.StatusBadRequest, "resumes is required")
		return
	}

	result, err := s.pipeline.Run(r.Context(), req.Resumes, req.Requirements)
	if err != nil {
		writeWrappedError(w, s.logger, err, "failed to ingest resume batch", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
