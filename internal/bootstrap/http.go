package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/netutil"

	"github.com/gatewatch/ui-gateway/config"
	httpx "github.com/gatewatch/ui-gateway/internal/http"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	HTTP     config.HTTPConfig
	Services httpx.RouterServices
	Logger   *slog.Logger
}

// HTTPServer wraps the listening server for graceful shutdown.
type HTTPServer struct {
	server          *http.Server
	listener        net.Listener
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// StartHTTPServer binds the listener and returns the running server.
// Serve errors are reported on the returned server's Wait method.
func StartHTTPServer(cfg HTTPServerConfig) (*HTTPServer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	addr := cfg.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	if cfg.HTTP.MaxConns > 0 {
		ln = netutil.LimitListener(ln, cfg.HTTP.MaxConns)
	}

	server := &http.Server{
		Handler:      httpx.NewRouter(cfg.Services),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("starting HTTP server", "addr", addr, "max_conns", cfg.HTTP.MaxConns)

	return &HTTPServer{
		server:          server,
		listener:        ln,
		shutdownTimeout: cfg.HTTP.ShutdownTimeout,
		logger:          logger,
	}, nil
}

// Serve blocks serving requests until Shutdown is called or the listener
// fails.
func (s *HTTPServer) Serve() error {
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests, bounded by the configured timeout.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}
