// Package server exposes the REST JSON surface over the rate-shopping
// core.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/labelrun/labelrun/internal/credential"
	"github.com/labelrun/labelrun/internal/history"
	"github.com/labelrun/labelrun/internal/telemetry"
	"github.com/labelrun/labelrun/pkg/provider"
)

// Server is the HTTP server for the label service.
type Server struct {
	port         int
	registry     *provider.Registry
	orchestrator *provider.Orchestrator
	store        *credential.Store
	log          *history.Log
	logger       *otelzap.Logger
	metrics      *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, registry *provider.Registry, orchestrator *provider.Orchestrator,
	store *credential.Store, log *history.Log, metrics *telemetry.Metrics, logger *otelzap.Logger) *Server {
	return &Server{
		port:         cfg.Port,
		registry:     registry,
		orchestrator: orchestrator,
		store:        store,
		log:          log,
		logger:       logger,
		metrics:      metrics,
	}
}

// Handler returns the routed HTTP handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", s.handleHealth)

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Providers and credentials
	mux.HandleFunc("GET /api/providers", s.handleListProviders)
	mux.HandleFunc("PUT /api/providers/{id}/credential", s.handleSaveCredential)
	mux.HandleFunc("DELETE /api/providers/{id}/credential", s.handleClearCredential)
	mux.HandleFunc("DELETE /api/credentials", s.handleClearAllCredentials)

	// Labels and history
	mux.HandleFunc("POST /api/labels", s.handleGenerateLabel)
	mux.HandleFunc("GET /api/history", s.handleListHistory)
	mux.HandleFunc("DELETE /api/history/{id}", s.handleRemoveHistory)
	mux.HandleFunc("DELETE /api/history", s.handleClearHistory)

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// errorBody is the structured error response. Stage names which part of
// the flow failed so the caller can take corrective action.
type errorBody struct {
	Error    string                    `json:"error"`
	Stage    string                    `json:"stage,omitempty"`
	Provider string                    `json:"provider,omitempty"`
	Fields   provider.ValidationErrors `json:"fields,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, body errorBody) {
	s.writeJSON(w, status, body)
}
