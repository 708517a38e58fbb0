package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthFunc reports readiness details for /healthz. A non-nil error marks
// the process unhealthy.
type HealthFunc func() (map[string]any, error)

// Server exposes /metrics and /healthz on a TCP listener.
type Server struct {
	http     *http.Server
	listener net.Listener
	logger   *zap.Logger
}

// NewServer binds addr. The listener is opened here so a taken port fails
// startup instead of surfacing later.
func NewServer(addr string, health HealthFunc, logger *zap.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Server{
		http: &http.Server{
			Handler:           Router(health),
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: listener,
		logger:   logger,
	}, nil
}

// Router builds the handler tree.
func Router(health HealthFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{"status": "ok"}
		code := http.StatusOK
		if health != nil {
			details, err := health()
			for k, v := range details {
				body[k] = v
			}
			if err != nil {
				body["status"] = "unhealthy"
				body["error"] = err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
	})
	return r
}

// Addr is the bound address.
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Start serves until Stop. Blocks.
func (s *Server) Start() error {
	s.logger.Info("metrics server starting", zap.String("addr", s.Addr()))
	if err := s.http.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts down gracefully.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("metrics server stopping")
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Warn("metrics server shutdown", zap.Error(err))
	}
}
