// Package http exposes the skill engine over a JSON REST API.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/skillgate/skillgate/internal/logging"
	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/skillgate/skillgate/pkg/observability"
	"github.com/skillgate/skillgate/pkg/pipeline"
	"github.com/skillgate/skillgate/pkg/registry"
	"github.com/skillgate/skillgate/pkg/workflow"
)

// Server wires the registry, execution pipeline and workflow engine into
// HTTP handlers.
type Server struct {
	registry  *registry.Registry
	pipeline  *pipeline.Pipeline
	workflows *workflow.Engine
	logger    *slog.Logger
	version   string
	stats     func() observability.Snapshot
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithStats exposes an activity snapshot under GET /stats.
func WithStats(fn func() observability.Snapshot) Option {
	return func(s *Server) { s.stats = fn }
}

// NewServer creates a server over the given collaborators.
func NewServer(reg *registry.Registry, pipe *pipeline.Pipeline, wf *workflow.Engine, opts ...Option) *Server {
	s := &Server{
		registry:  reg,
		pipeline:  pipe,
		workflows: wf,
		logger:    logging.NewNop(),
		version:   "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Handle("/metrics", promhttp.Handler())
	if s.stats != nil {
		r.Get("/stats", s.getStats)
	}

	r.Route("/skills", func(r chi.Router) {
		r.Get("/", s.listSkills)
		r.Post("/", s.registerSkill)
		r.Get("/{id}", s.getSkill)
		r.Put("/{id}", s.replaceSkill)
		r.Delete("/{id}", s.unregisterSkill)
	})

	r.Route("/executions", func(r chi.Router) {
		r.Post("/", s.submitExecution)
		r.Get("/{id}", s.getExecution)
		r.Post("/{id}/approve", s.approveExecution)
		r.Post("/{id}/deny", s.denyExecution)
	})

	r.Get("/approvals", s.listApprovals)
	r.Get("/history", s.getHistory)

	r.Route("/workflows", func(r chi.Router) {
		r.Get("/", s.listWorkflows)
		r.Post("/", s.saveWorkflow)
		r.Get("/{id}", s.getWorkflow)
		r.Delete("/{id}", s.deleteWorkflow)
		r.Post("/{id}/validate", s.validateWorkflow)
		r.Post("/{id}/execute", s.executeWorkflow)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "skillgate",
		"version": s.version,
	})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.stats())
}

// -- Skills --

func (s *Server) listSkills(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) registerSkill(w http.ResponseWriter, r *http.Request) {
	var def domain.SkillDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.registry.Register(def); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	stored, err := s.registry.Lookup(def.ID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) getSkill(w http.ResponseWriter, r *http.Request) {
	def, err := s.registry.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, def)
}

func (s *Server) replaceSkill(w http.ResponseWriter, r *http.Request) {
	var def domain.SkillDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	def.ID = chi.URLParam(r, "id")
	if err := s.registry.Replace(def); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	stored, err := s.registry.Lookup(def.ID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stored)
}

func (s *Server) unregisterSkill(w http.ResponseWriter, r *http.Request) {
	s.registry.Unregister(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// -- Executions --

type executionRequest struct {
	SkillID string         `json:"skill_id"`
	Params  map[string]any `json:"params"`
}

type executionAccepted struct {
	ExecutionID string `json:"execution_id"`
}

// submitExecution is fire-and-poll: the call returns 202 with the execution
// id as soon as the request is admitted. Approval and the action itself
// happen after the response; clients poll GET /executions/{id}.
func (s *Server) submitExecution(w http.ResponseWriter, r *http.Request) {
	var req executionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	id, err := s.pipeline.Submit(r.Context(), req.SkillID, req.Params)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, executionAccepted{ExecutionID: id})
}

func (s *Server) getExecution(w http.ResponseWriter, r *http.Request) {
	exec, err := s.pipeline.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, exec)
}

func (s *Server) approveExecution(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.Approve(chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (s *Server) denyExecution(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.Deny(chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "denied"})
}

func (s *Server) listApprovals(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.pipeline.Pending())
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.pipeline.History(r.Context(), r.URL.Query().Get("skill_id"))
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// -- Workflows --

func (s *Server) listWorkflows(w http.ResponseWriter, r *http.Request) {
	ids, err := s.workflows.List(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

func (s *Server) saveWorkflow(w http.ResponseWriter, r *http.Request) {
	var wf domain.Workflow
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.workflows.Save(r.Context(), wf); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, wf)
}

func (s *Server) getWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := s.workflows.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, wf)
}

func (s *Server) deleteWorkflow(w http.ResponseWriter, r *http.Request) {
	if err := s.workflows.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) validateWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := s.workflows.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.workflows.Validate(wf); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

type workflowExecuteRequest struct {
	Inputs map[string]any `json:"inputs"`
}

func (s *Server) executeWorkflow(w http.ResponseWriter, r *http.Request) {
	var req workflowExecuteRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
	}

	result, err := s.workflows.Execute(r.Context(), chi.URLParam(r, "id"), req.Inputs)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// -- Helpers --

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeDomainError maps engine errors onto HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	var mismatch *domain.TypeMismatchError
	switch {
	case errors.Is(err, domain.ErrSkillNotFound),
		errors.Is(err, domain.ErrExecutionNotFound),
		errors.Is(err, domain.ErrWorkflowNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyDecided):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrSignatureInvalid),
		errors.Is(err, domain.ErrParameterInvalid),
		errors.Is(err, domain.ErrGraphInvalid),
		errors.Is(err, domain.ErrCyclicGraph),
		errors.As(err, &mismatch):
		status = http.StatusUnprocessableEntity
	}

	s.writeError(w, r, status, err)
}
