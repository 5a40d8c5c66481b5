package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"laundering-ring-detector/internal/infrastructure/config"
	"laundering-ring-detector/internal/infrastructure/logger"
	"laundering-ring-detector/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

// Check reports whether a dependency is usable
type Check func(ctx context.Context) error

// Server exposes /health, /ready and /metrics
type Server struct {
	server  *http.Server
	checks  map[string]Check
	timeout time.Duration
	logger  *logger.Logger
}

// NewServer creates a new health server. m may be nil when metrics are disabled.
func NewServer(cfg *config.Config, m *metrics.Metrics, logger *logger.Logger) *Server {
	s := &Server{
		checks:  make(map[string]Check),
		timeout: cfg.Health.Timeout,
		logger:  logger.WithComponent("health-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	if m != nil && cfg.Metrics.Enabled {
		mux.Handle("/metrics", m.Handler())
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// AddCheck registers a named readiness check
func (s *Server) AddCheck(name string, check Check) {
	s.checks[name] = check
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves in the background
func (s *Server) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Health server error", zap.Error(err))
		}
	}()
	s.logger.Info("Health server started", zap.String("addr", s.server.Addr))
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping health server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	body := map[string]interface{}{"status": "ok", "checks": results}
	if status != http.StatusOK {
		body["status"] = "unavailable"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
