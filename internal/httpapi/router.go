// Package httpapi serves the control plane: creating runs, reading
// their summaries, resuming failed ones, and streaming their
// lifecycle events, plus liveness/readiness endpoints for operators.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cortexrt/agent-runtime/internal/eventhub"
	"github.com/cortexrt/agent-runtime/internal/models"
)

// RunCreator creates a new PENDING run for agentName and returns its ID.
type RunCreator interface {
	CreateRunCtx(ctx context.Context, agentName string, input any) (string, error)
}

// RunExecutor is the subset of runexec.Executor the HTTP layer drives.
type RunExecutor interface {
	ResumeRun(ctx context.Context, runID string) error
	GetRunSummary(ctx context.Context, runID string) (models.RunSummary, error)
}

// Server holds the dependencies the control plane's handlers need.
type Server struct {
	Runs   RunCreator
	Exec   RunExecutor
	Events *eventhub.Hub
	DB     *sql.DB // optional; nil disables the database check in /ready
}

// NewRouter builds the chi router serving the control plane.
func NewRouter(s *Server) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Post("/runs", s.handleCreateRun)
	r.Get("/runs/{run_id}", s.handleGetRun)
	r.Post("/runs/{run_id}/resume", s.handleResumeRun)
	r.Get("/runs/{run_id}/events", s.handleRunEvents)

	return r
}

type createRunRequest struct {
	AgentName string `json:"agent_name"`
	Input     any    `json:"input"`
}

type createRunResponse struct {
	RunID string `json:"run_id"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AgentName == "" {
		writeError(w, http.StatusBadRequest, "agent_name is required")
		return
	}

	runID, err := s.Runs.CreateRunCtx(r.Context(), req.AgentName, req.Input)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, createRunResponse{RunID: runID})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	summary, err := s.Exec.GetRunSummary(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleResumeRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	if err := s.Exec.ResumeRun(r.Context(), runID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	if s.Events == nil {
		writeError(w, http.StatusNotImplemented, "event stream is not enabled")
		return
	}
	if err := s.Events.ServeWS(w, r, runID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]any{}
	status := "ready"

	if s.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.DB.PingContext(ctx); err != nil {
			checks["database"] = map[string]string{"status": "unhealthy", "error": err.Error()}
			status = "not_ready"
		} else {
			checks["database"] = map[string]string{"status": "healthy"}
		}
	}

	code := http.StatusOK
	if status != "ready" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
