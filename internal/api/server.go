// Package api exposes the HTTP interface for the ingestion service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/maan2529/tomatoz-project/internal/config"
	"github.com/maan2529/tomatoz-project/internal/diagram"
	"github.com/maan2529/tomatoz-project/internal/pipeline"
)

// PipelineRunner executes one ingestion run and always returns a report.
type PipelineRunner interface {
	Execute(ctx context.Context, techOrURL string, opts pipeline.Options) pipeline.Report
}

// DiagramRunner executes the diagram workflow for one blog.
type DiagramRunner interface {
	Execute(ctx context.Context, blogID string) (diagram.Outcome, error)
}

// ReadyChecker reports whether downstream dependencies are reachable.
type ReadyChecker func(ctx context.Context) error

// Server wires HTTP handlers to the pipeline, the diagram agent and the
// stores.
type Server struct {
	router   chi.Router
	runner   PipelineRunner
	diagrams DiagramRunner
	blogs    pipeline.BlogStore
	diagRepo pipeline.DiagramStore
	ready    ReadyChecker
	logger   *zap.Logger
	cfg      config.Config
}

// NewServer constructs a Server with middleware and routes. ready may be
// nil; the readiness probe then always succeeds.
func NewServer(
	runner PipelineRunner,
	diagrams DiagramRunner,
	blogs pipeline.BlogStore,
	diagRepo pipeline.DiagramStore,
	ready ReadyChecker,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		runner:   runner,
		diagrams: diagrams,
		blogs:    blogs,
		diagRepo: diagRepo,
		ready:    ready,
		logger:   logger,
		cfg:      cfg,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(cfg.RequestTimeout()))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Post("/pipeline/runs", s.runPipeline)
		r.Get("/pipeline/status", s.pipelineStatus)
		r.Post("/diagrams", s.generateDiagram)
		r.Get("/diagrams/{blog_id}", s.listDiagrams)
		r.Route("/blogs", func(r chi.Router) {
			r.Get("/", s.listBlogs)
			r.Get("/{slug}", s.getBlog)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error(), s.logger)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, s.logger)
}

type pipelineRunRequest struct {
	Technology  string `json:"technology"`
	MaxSources  int    `json:"max_sources"`
	RecencyDays int    `json:"recency_days"`
	UserID      string `json:"user_id"`
}

func (s *Server) runPipeline(w http.ResponseWriter, r *http.Request) {
	var req pipelineRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", s.logger)
		return
	}
	if req.Technology == "" {
		writeError(w, http.StatusBadRequest, "technology required", s.logger)
		return
	}
	opts := pipeline.Options{
		MaxSources:  req.MaxSources,
		RecencyDays: req.RecencyDays,
		UserID:      req.UserID,
	}
	if opts.MaxSources <= 0 {
		opts.MaxSources = s.cfg.Pipeline.MaxSources
	}
	if opts.RecencyDays <= 0 {
		opts.RecencyDays = s.cfg.Pipeline.RecencyDays
	}

	report := s.runner.Execute(r.Context(), req.Technology, opts)
	status := http.StatusOK
	if !report.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, report, s.logger)
}

// pipelineStatus reports which collaborators are configured and whether
// the database answers.
func (s *Server) pipelineStatus(w http.ResponseWriter, r *http.Request) {
	database := "memory"
	databaseOK := true
	if s.ready != nil {
		database = "postgres"
		databaseOK = s.ready(r.Context()) == nil
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"search_configured": s.cfg.Search.APIKey != "",
		"llm_configured":    s.cfg.LLM.APIKey != "",
		"pubsub_configured": s.cfg.PubSub.ProjectID != "" && s.cfg.PubSub.TopicName != "",
		"database":          database,
		"database_ok":       databaseOK,
	}, s.logger)
}

type diagramRequest struct {
	BlogID string `json:"blog_id"`
}

func (s *Server) generateDiagram(w http.ResponseWriter, r *http.Request) {
	var req diagramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BlogID == "" {
		writeError(w, http.StatusBadRequest, "blog_id required", s.logger)
		return
	}

	outcome, err := s.diagrams.Execute(r.Context(), req.BlogID)
	switch {
	case errors.Is(err, pipeline.ErrNotFound):
		writeError(w, http.StatusNotFound, "blog not found", s.logger)
		return
	case errors.Is(err, diagram.ErrInProgress):
		writeError(w, http.StatusConflict, "diagram generation already in progress", s.logger)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error(), s.logger)
		return
	}
	writeJSON(w, http.StatusOK, outcome, s.logger)
}

func (s *Server) listDiagrams(w http.ResponseWriter, r *http.Request) {
	blogID := chi.URLParam(r, "blog_id")
	if _, err := s.blogs.FindByID(r.Context(), blogID); err != nil {
		writeError(w, http.StatusNotFound, "blog not found", s.logger)
		return
	}
	diagrams, err := s.diagRepo.ListByBlog(r.Context(), blogID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list diagrams", s.logger)
		return
	}
	if diagrams == nil {
		diagrams = []pipeline.Diagram{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"diagrams": diagrams}, s.logger)
}

func (s *Server) listBlogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", s.logger)
			return
		}
		limit = n
	}
	blogs, err := s.blogs.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list blogs", s.logger)
		return
	}
	if blogs == nil {
		blogs = []pipeline.Blog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"blogs": blogs}, s.logger)
}

func (s *Server) getBlog(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	blog, err := s.blogs.FindBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			writeError(w, http.StatusNotFound, "blog not found", s.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch blog", s.logger)
		return
	}
	writeJSON(w, http.StatusOK, blog, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, payload any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string, logger *zap.Logger) {
	writeJSON(w, status, map[string]string{"error": msg}, logger)
}
