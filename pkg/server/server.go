package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Config holds the HTTP listener settings.
type Config struct {
	// Host is the bind address. Empty binds every interface.
	Host string `env:"HTTP_HOST"`
	// Port is the TCP port the gateway listens on. "0" picks a free port,
	// which tests rely on.
	Port string `env:"HTTP_PORT" envDefault:"8234"`
}

// Addr assembles the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Server owns the HTTP listener in front of the relay handler. Routing is an
// explicit match instead of http.ServeMux: the mux canonicalizes paths and
// answers "/topic/" or "//x" with a 301, which would corrupt relay requests
// whose message segment is empty or starts with a slash.
type Server struct {
	logger     zerolog.Logger
	httpServer *http.Server

	mu         sync.RWMutex
	actualAddr string
}

// New assembles the server around the relay handler. reg supplies the
// gateway metrics served on /metrics.
func New(cfg Config, relayHandler http.Handler, reg *prometheus.Registry, logger zerolog.Logger) *Server {
	s := &Server{
		logger: logger.With().Str("component", "Server").Logger(),
	}
	metricsHandler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	s.httpServer = &http.Server{
		Addr:    cfg.Addr(),
		Handler: dispatch(relayHandler, metricsHandler),
	}
	return s
}

// dispatch is the whole routing table: two fixed operational endpoints,
// then every GET goes to the relay. Only exact matches count, so a path
// like /healthz/x is still a relay request.
func dispatch(relayHandler, metricsHandler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/healthz":
			healthz(w, r)
		case r.URL.Path == "/metrics":
			metricsHandler.ServeHTTP(w, r)
		case r.Method == http.MethodGet:
			relayHandler.ServeHTTP(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// healthz answers liveness probes.
func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Start binds the listener and serves in the background. A bind failure is
// returned immediately so the caller can treat it as fatal.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}

	s.mu.Lock()
	s.actualAddr = listener.Addr().String()
	s.mu.Unlock()

	s.logger.Info().Str("address", listener.Addr().String()).Msg("HTTP server starting to listen")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()
	return nil
}

// Shutdown gracefully stops the listener, honouring ctx's deadline for
// requests still in flight.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("HTTP server shutdown failed.")
		return err
	}
	s.logger.Info().Msg("HTTP server stopped.")
	return nil
}

// Addr returns the bound listen address, valid once Start has returned.
// With Port "0" this is where the kernel actually put us.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actualAddr
}
