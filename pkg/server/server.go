// Package server provides the HTTP JSON API for metric decision guarding.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/metricguard/pkg/config"
	"mercator-hq/metricguard/pkg/decision"
	"mercator-hq/metricguard/pkg/server/certs"
	"mercator-hq/metricguard/pkg/server/middleware"
	"mercator-hq/metricguard/pkg/server/ratelimit"
	"mercator-hq/metricguard/pkg/telemetry"
	"mercator-hq/metricguard/pkg/telemetry/tracing"
)

// Server is the decision API server.
type Server struct {
	config    *config.ServerConfig
	lifecycle *decision.Lifecycle
	telemetry *telemetry.Telemetry
	limiter   *ratelimit.Limiter

	httpServer   *http.Server
	listener     net.Listener
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	logger       *slog.Logger
}

// NewServer creates a new decision API server. tel may be nil, in which case
// no metrics, tracing or health endpoints are mounted.
func NewServer(cfg *config.ServerConfig, lc *decision.Lifecycle, tel *telemetry.Telemetry) *Server {
	s := &Server{
		config:       cfg,
		lifecycle:    lc,
		telemetry:    tel,
		shutdownChan: make(chan struct{}),
		logger:       slog.Default().With("component", "server"),
	}
	if rl := cfg.RateLimit; rl.Enabled {
		s.limiter = ratelimit.New(ratelimit.Config{
			RequestsPerSecond: rl.RequestsPerSecond,
			Burst:             rl.Burst,
			MaxConcurrent:     rl.MaxConcurrent,
		})
	}
	return s
}

// Start starts the HTTP server and blocks until ctx is cancelled, Stop is
// called, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return errors.New("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	var tlsConfig *tls.Config
	if t := s.config.TLS; t.Enabled {
		reloader := certs.NewReloader(t.CertFile, t.KeyFile, t.ReloadInterval)
		if err := reloader.Start(ctx); err != nil {
			ln.Close()
			s.mu.Unlock()
			return fmt.Errorf("failed to load TLS certificate: %w", err)
		}
		if tlsConfig, err = certs.ServerConfig(reloader, t.MinVersion); err != nil {
			ln.Close()
			s.mu.Unlock()
			return err
		}
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
		TLSConfig:      tlsConfig,
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting decision API server", "address", ln.Addr().String(), "tls", tlsConfig != nil)

		var err error
		if tlsConfig != nil {
			err = s.httpServer.ServeTLS(ln, "", "")
		} else {
			err = s.httpServer.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Stop asks a running Start to shut down.
func (s *Server) Stop() {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("decision API server stopped")
	})

	return shutdownErr
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	if s.telemetry != nil {
		s.telemetry.Mount(mux)
	}

	var handler http.Handler = routed(mux)

	handler = middleware.TimeoutMiddleware(s.config.RequestTimeout)(handler)
	if s.limiter != nil {
		var recorder middleware.ThrottleRecorder
		if s.telemetry != nil {
			recorder = s.telemetry.Metrics()
		}
		handler = middleware.RateLimitMiddleware(s.limiter, recorder)(handler)
	}
	if s.telemetry != nil {
		handler = middleware.MetricsMiddleware(s.telemetry.Metrics())(handler)
		handler = tracing.HTTPMiddleware(s.telemetry.Tracer().Tracer())(handler)
	}
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.LoggingMiddleware(handler)

	// Recovery middleware (outermost)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}
