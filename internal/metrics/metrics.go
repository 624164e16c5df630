package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Session metrics
	SessionsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldtrack_sessions_saved_total",
			Help: "Total session records accepted and persisted",
		},
		[]string{"activity_type", "supervision_type"},
	)

	SessionsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldtrack_sessions_rejected_total",
			Help: "Total candidate session records rejected by the save-time audit",
		},
		[]string{"rule"},
	)

	SessionHoursLogged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldtrack_session_hours_logged_total",
			Help: "Total fieldwork hours accepted into the log",
		},
		[]string{"supervision_type"},
	)

	// Compliance metrics
	ReportsComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldtrack_reports_computed_total",
			Help: "Total monthly compliance reports computed",
		},
		[]string{"mode"},
	)

	// Ruleset metrics
	RulesetFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldtrack_ruleset_fallbacks_total",
			Help: "Ruleset resolutions that substituted a fallback bundle",
		},
		[]string{"source"},
	)

	// API metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldtrack_http_requests_total",
			Help: "Total HTTP API requests processed",
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsSaved,
		SessionsRejected,
		SessionHoursLogged,
		ReportsComputed,
		RulesetFallbacks,
		RequestsTotal,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
