// Package server exposes the engine over a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/agrisense/advisor/internal/engine"
	"github.com/agrisense/advisor/internal/metrics"
)

// Options configures the HTTP server.
type Options struct {
	Port           int
	AllowedOrigins []string
	Version        string
}

type Server struct {
	engine  *engine.Engine
	metrics *metrics.Recorder
	logger  *slog.Logger
	origins map[string]struct{}
	version string
	server  *http.Server
}

// New wires the routes for eng. A nil metrics recorder serves an empty
// /metrics registry.
func New(eng *engine.Engine, rec *metrics.Recorder, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.New()
	}

	s := &Server{
		engine:  eng,
		metrics: rec,
		logger:  logger,
		origins: make(map[string]struct{}, len(opts.AllowedOrigins)),
		version: opts.Version,
	}
	for _, o := range opts.AllowedOrigins {
		s.origins[o] = struct{}{}
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.registerRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type apiError struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeAPIJSON(w http.ResponseWriter, data any) {
	writeAPIJSONStatus(w, http.StatusOK, data)
}

func writeAPIJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeAPIJSONStatus(w, status, apiError{Error: msg, RequestID: requestIDFrom(r.Context())})
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrRetrievalUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrInvalidTuning), errors.Is(err, engine.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
