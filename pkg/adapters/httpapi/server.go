// Package httpapi exposes the engine over a small JSON HTTP surface:
// session lifecycle, suspend/resume by token, and health/metrics probes.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/remedyhq/remedy"
	"github.com/remedyhq/remedy/internal/logging"
	"github.com/remedyhq/remedy/pkg/domain"
)

// Server wraps the engine with HTTP handlers.
type Server struct {
	engine  *remedy.Engine
	logger  *slog.Logger
	metrics prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics mounts a Prometheus /metrics endpoint for the registry.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = g
	}
}

// NewHandler builds the HTTP handler for the engine.
func NewHandler(engine *remedy.Engine, opts ...Option) http.Handler {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.startSession)
		r.Get("/", s.listSessions)
		r.Get("/{id}", s.getSession)
		r.Get("/{id}/prompt", s.getPrompt)
		r.Post("/{id}/cancel", s.cancelSession)
		r.Delete("/{id}", s.deleteSession)
	})
	r.Post("/resume/{token}", s.resumeSession)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// startRequest opens a session either from free text or from a partial
// structured record. Exactly one of Text or Seed must be set.
type startRequest struct {
	SessionID string         `json:"session_id,omitempty"`
	Text      string         `json:"text,omitempty"`
	Seed      map[string]any `json:"seed,omitempty"`
}

type resumeRequest struct {
	Input any `json:"input"`
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if (req.Text == "") == (req.Seed == nil) {
		s.writeError(w, r, http.StatusBadRequest, "exactly one of text or seed is required")
		return
	}

	var (
		res *remedy.Result
		err error
	)
	if req.Text != "" {
		res, err = s.engine.StartText(r.Context(), req.SessionID, req.Text)
	} else {
		res, err = s.engine.StartSeed(r.Context(), req.SessionID, req.Seed)
	}
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

func (s *Server) resumeSession(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req resumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.engine.Resume(r.Context(), token, req.Input)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) getPrompt(w http.ResponseWriter, r *http.Request) {
	waiting, err := s.engine.Prompt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	if waiting == nil {
		s.writeError(w, r, http.StatusNotFound, "session is not waiting for input")
		return
	}
	s.writeJSON(w, http.StatusOK, waiting)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.engine.List(r.Context())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sessions": summaries})
}

func (s *Server) cancelSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": remedy.Version,
	})
}

// writeEngineError maps domain errors onto HTTP status codes.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrTokenNotFound):
		s.writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSessionExists),
		errors.Is(err, domain.ErrSessionTerminated),
		errors.Is(err, domain.ErrNotWaiting):
		s.writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidResumeInput),
		errors.Is(err, domain.ErrInvalidSeed):
		s.writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if status >= 400 && status < 500 {
		s.logger.Warn("request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"reason", msg,
		)
	}
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}
