// Package httpapi is the HTTP front door: it forwards {method} /function{rest}
// to the Invocation Pipeline and translates error kinds to status codes.
// Endpoints for managing functions and triggers are this package's
// concern, not the core's.
package httpapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fluorfn/runtime/pkg/function"
	"github.com/fluorfn/runtime/pkg/pipeline"
)

// functionPrefix is the gateway path prefix the core's invocation surface
// is mounted under.
const functionPrefix = "/function"

// Server is the HTTP front door.
type Server struct {
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
	router   chi.Router
	admin    AdminDeps
}

// New builds a Server that dispatches every method+path under /function to
// pipe. Pass admin deps via WithAdmin to additionally mount the
// function/trigger management surface.
func New(pipe *pipeline.Pipeline, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{pipeline: pipe, logger: logger}
	r := chi.NewRouter()
	r.HandleFunc("/function/*", s.handleInvoke)

	for _, opt := range opts {
		opt(s, r)
	}

	s.router = r
	return s
}

// Option configures optional Server surfaces at construction time.
type Option func(s *Server, r chi.Router)

// WithAdmin mounts the /admin/functions and /admin/triggers management
// surface described in AdminDeps.
func WithAdmin(deps AdminDeps) Option {
	return func(s *Server, r chi.Router) {
		s.mountAdmin(r, deps)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, functionPrefix)
	if rest == "" {
		rest = "/"
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	output, err := s.pipeline.Invoke(r.Context(), r.Method, rest, string(body))
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(output))
}

// writeError translates an error kind to a status code per the
// propagation policy: NotFound/Validation -> 4xx, AlreadyExists -> 409,
// everything else -> 5xx.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case function.IsNotFound(err):
		status = http.StatusNotFound
	case function.IsValidation(err):
		status = http.StatusBadRequest
	case function.IsAlreadyExists(err):
		status = http.StatusConflict
	case function.IsResourceExhausted(err):
		status = http.StatusServiceUnavailable
	case function.IsBadBinary(err), function.IsExecution(err), function.IsInternal(err):
		status = http.StatusInternalServerError
	}
	if s.logger != nil {
		s.logger.Error("invocation error", zap.Int("status", status), zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}
