// Package server exposes the HTTP API: the webhook receiver for call
// provider events, ingest, manual dial triggers, and the read-only stats
// surface the console tooling consumes.
package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hatchline/recruitpulse/candidate"
	"github.com/hatchline/recruitpulse/errors"
	"github.com/hatchline/recruitpulse/ingest"
	"github.com/hatchline/recruitpulse/queue"
	"github.com/hatchline/recruitpulse/webhook"
)

// ShutdownTimeout bounds how long in-flight requests get to finish.
const ShutdownTimeout = 10 * time.Second

// Server holds the HTTP API and its collaborators.
type Server struct {
	candidates *candidate.Store
	queueStore *queue.Store
	scheduler  *queue.Scheduler
	dispatcher *webhook.Dispatcher
	recent     *webhook.Recent
	pipeline   *ingest.Pipeline
	logger     *zap.SugaredLogger

	httpServer *http.Server
}

// New wires the API server. Call Start to begin serving.
func New(addr string, candidates *candidate.Store, queueStore *queue.Store,
	scheduler *queue.Scheduler, dispatcher *webhook.Dispatcher,
	recent *webhook.Recent, pipeline *ingest.Pipeline,
	logger *zap.SugaredLogger) *Server {
	s := &Server{
		candidates: candidates,
		queueStore: queueStore,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		recent:     recent,
		pipeline:   pipeline,
		logger:     logger,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// routes configures all HTTP handlers
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/webhook/call-events", s.HandleCallEvents)      // Provider webhook receiver (POST)
	mux.HandleFunc("/api/webhook/recent", s.HandleRecentWebhooks)       // Recent raw payloads for debugging (GET)
	mux.HandleFunc("/api/candidates/call-pending", s.HandleCallPending) // Bulk enqueue never-called candidates (POST)
	mux.HandleFunc("/api/candidates/", s.HandleCandidateAction)         // Manual dial (POST /api/candidates/{id}/call)
	mux.HandleFunc("/api/candidates", s.HandleCandidates)               // Filtered listing (GET)
	mux.HandleFunc("/api/stats", s.HandleStats)                         // Status buckets + score distribution (GET)
	mux.HandleFunc("/api/queue/stats", s.HandleQueueStats)              // Queue depth and next call time (GET)
	mux.HandleFunc("/api/ingest", s.HandleIngest)                       // Resume batch upload (POST)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

// Handler returns the configured mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Infow("HTTP API listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to serve HTTP API")
	}
	return nil
}

// Shutdown drains in-flight requests with a bounded grace period.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
