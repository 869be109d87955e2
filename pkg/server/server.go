package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Config contains HTTP server configuration.
type Config struct {
	// ListenAddress is the address and port to listen on.
	ListenAddress string

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration

	// IdleTimeout is the keep-alive idle timeout.
	IdleTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// MaxHeaderBytes limits the size of request headers.
	MaxHeaderBytes int
}

// Server wraps http.Server with lifecycle management.
type Server struct {
	httpServer      *http.Server
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// New creates a server serving handler per cfg.
func New(cfg Config, handler http.Handler, logger *slog.Logger) (*Server, error) {
	if cfg.ListenAddress == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	return &Server{
		httpServer: &http.Server{
			Addr:           cfg.ListenAddress,
			Handler:        handler,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			IdleTimeout:    cfg.IdleTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
		logger:          logger.With("component", "server"),
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Start begins serving and blocks until the listener stops. It returns
// nil on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("server listening", "address", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully, waiting up to the configured
// shutdown timeout for in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")

	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
