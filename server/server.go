// Package server exposes the analysis engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DJSwig/redup-demo/analyzer"
	"github.com/DJSwig/redup-demo/pkg/redup"
	"github.com/DJSwig/redup-demo/rules"
)

// Analyzer runs the full analysis pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, req analyzer.Request, token string) (*analyzer.Analysis, error)
}

// RuleLookup resolves a single community's rules with strict semantics.
type RuleLookup interface {
	Lookup(ctx context.Context, community, token string) (*rules.Result, error)
}

// Server handles HTTP requests.
type Server struct {
	analyzer Analyzer
	lookup   RuleLookup
	logger   *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Analyzer Analyzer
	Lookup   RuleLookup
	Logger   *slog.Logger
}

// New creates a new HTTP server handler.
func New(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{analyzer: cfg.Analyzer, lookup: cfg.Lookup, logger: logger}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/communities/{name}/rules", s.handleRules)
	return mux
}

// ListenAndServe starts the server with timeouts to prevent resource
// exhaustion. Analysis fans out to many upstream fetches, so the write
// timeout is generous.
func (s *Server) ListenAndServe(port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      180 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	s.logger.Info("Server starting", "port", port)
	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		s.logger.Error("Failed to write health response", "error", err)
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzer.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), req, bearerToken(r))
	if err != nil {
		if errors.Is(err, analyzer.ErrTitleRequired) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("Analysis failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	res, err := s.lookup.Lookup(r.Context(), name, bearerToken(r))
	if err != nil {
		switch {
		case redup.IsNotFound(err), redup.IsInvalidCommunity(err):
			s.writeError(w, http.StatusNotFound, err.Error())
		default:
			s.logger.Error("Rule lookup failed", "community", name, "error", err)
			s.writeError(w, http.StatusInternalServerError, "rule lookup failed")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"community":         res.Profile.Name,
		"strategy":          res.Strategy,
		"rules":             res.Rules,
		"post_requirements": res.Requirements,
		"profile":           res.Profile,
		"flags":             rules.DeriveFlags(res.Rules),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// bearerToken pulls an optional upstream token from the Authorization
// header. Missing or malformed headers mean anonymous access.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
