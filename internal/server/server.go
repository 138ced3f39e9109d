// Package server provides the HTTP server for the Mudra recording station.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/skeleton"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	App       *app.App
	// StatusInterval is the websocket broadcast period. Defaults to ~15 FPS.
	StatusInterval time.Duration
}

// Server represents the HTTP server for the Mudra application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	status *StatusHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.StatusInterval <= 0 {
		config.StatusInterval = 66 * time.Millisecond
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if a := s.config.App; a != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)

		s.status = NewStatusHandler(a, s.config.StatusInterval)
		s.mux.Handle("/api/status/ws", s.status)

		s.mux.Handle("/api/roi/left", NewStreamHandler(a, skeleton.Left))
		s.mux.Handle("/api/roi/right", NewStreamHandler(a, skeleton.Right))

		s.mux.Handle("/api/session", api.NewSessionHandler(a))
		s.mux.Handle("/api/consumers", api.NewConsumerHandler(a.Consumers()))

		// Label and catalog endpoints need the store
		if st := a.Store(); st != nil {
			labels := api.NewLabelHandler(st, a.Labels(), a.RefreshLabel)
			s.mux.Handle("/api/labels", labels)
			s.mux.Handle("/api/labels/", labels)

			recordings := api.NewRecordingHandler(st)
			s.mux.Handle("/api/recordings", recordings)
			s.mux.Handle("/api/recordings/", recordings)
		}
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// handleStatus handles GET requests to /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.config.App.Status()); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Close stops the status broadcaster and disconnects its clients.
func (s *Server) Close() {
	if s.status != nil {
		s.status.Close()
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
