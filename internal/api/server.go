// Package api exposes the logbook over HTTP.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/goodtune/fieldtrack/internal/logbook"
	"github.com/goodtune/fieldtrack/internal/metrics"
	"github.com/goodtune/fieldtrack/internal/rules"
)

// Config holds the API server configuration.
type Config struct {
	ListenAddr  string
	DefaultVer  string
	DefaultMode rules.Mode
}

// Server is the HTTP front end over the logbook service.
type Server struct {
	config   Config
	logbook  *logbook.Service
	loader   *rules.Loader
	server   *http.Server
	router   *mux.Router
	listener net.Listener
	logger   zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config, lb *logbook.Service, loader *rules.Loader, logger zerolog.Logger) *Server {
	router := mux.NewRouter()

	s := &Server{
		config:  cfg,
		logbook: lb,
		loader:  loader,
		router:  router,
		logger:  logger.With().Str("component", "api").Logger(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// SetListener sets a pre-existing listener, typically from systemd
// socket activation.
func (s *Server) SetListener(l net.Listener) {
	s.listener = l
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(loggingMiddleware(s.logger))

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	sessionHandler := NewSessionHandler(s.logbook, s.logger)
	s.router.HandleFunc("/api/trainees/{traineeID}/sessions", sessionHandler.Create).Methods("POST")
	s.router.HandleFunc("/api/trainees/{traineeID}/sessions", sessionHandler.List).Methods("GET")
	s.router.HandleFunc("/api/trainees/{traineeID}/sessions/{id}", sessionHandler.Get).Methods("GET")
	s.router.HandleFunc("/api/trainees/{traineeID}/sessions/{id}", sessionHandler.Delete).Methods("DELETE")

	reportHandler := NewReportHandler(s.logbook, s.config.DefaultVer, s.config.DefaultMode, s.logger)
	s.router.HandleFunc("/api/trainees/{traineeID}/reports/{month}", reportHandler.Monthly).Methods("GET")

	rulesetHandler := NewRulesetHandler(s.loader, s.logger)
	s.router.HandleFunc("/api/rulesets/{version}", rulesetHandler.Get).Methods("GET")
}

// Start starts the API server. It does not block.
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.config.ListenAddr).
		Msg("Starting API server")

	go func() {
		var err error
		if s.listener != nil {
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()

	return nil
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}

// loggingMiddleware logs each request and records it in the request counter.
func loggingMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			metrics.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Int("status", wrapped.statusCode).
				Dur("duration", time.Since(start)).
				Msg("API request")
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
