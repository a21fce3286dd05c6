package server

import "net/http"

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/ask", s.handleAsk)
	mux.HandleFunc("GET /api/greeting", s.handleGreeting)
	mux.HandleFunc("POST /api/advice", s.handleAdvice)

	// Operator API
	mux.HandleFunc("POST /api/admin/reload", s.handleReload)
	mux.HandleFunc("POST /api/admin/tune", s.handleTune)
	mux.HandleFunc("GET /api/admin/tuning", s.handleGetTuning)
	mux.HandleFunc("GET /api/admin/status", s.handleStatus)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	return s.requestMiddleware(s.corsMiddleware(mux))
}
