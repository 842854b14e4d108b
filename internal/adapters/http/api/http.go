// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/commitwatch/internal/domain/snapshot"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider

	// Submissions returns the last resolved snapshot in persisted form.
	Submissions(ctx context.Context) snapshot.Document
}

// Server wires HTTP routes for the read API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	submissionsHandler *SubmissionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		submissionsHandler: NewSubmissionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux. Routes are method-qualified, so
// other methods get 405 from the mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats))
	mux.HandleFunc("GET /submissions", MetricsMiddleware(s.submissionsHandler.HandleList))
	mux.HandleFunc("GET /submissions/{uid}", MetricsMiddleware(s.submissionsHandler.HandleGet))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
