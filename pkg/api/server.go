// Package api provides the admin HTTP server: health probes and REST
// endpoints for inspecting and exercising the repository engine.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lodestone-io/lodestone/internal/logger"
	"github.com/lodestone-io/lodestone/pkg/engine"
)

// Server provides the admin HTTP server.
//
// Endpoints:
//   - GET /health: Liveness probe
//   - GET /health/ready: Readiness probe (engine running)
//   - GET /api/v1/repositories: Configured repository names
//   - GET /api/v1/repositories/{name}: Resolved configuration, read-only
//   - GET /api/v1/repositories/{name}/namespaces: Live namespace bindings
//   - POST /api/v1/repositories/{name}/sessions: Log in
//   - DELETE /api/v1/repositories/{name}/sessions/{sid}: Log out
//   - POST /api/v1/repositories/{name}/sessions/{sid}/locks: Acquire lock
//   - POST /api/v1/repositories/{name}/sessions/{sid}/locks/{lid}/refresh: Refresh
//   - DELETE /api/v1/repositories/{name}/sessions/{sid}/locks/{lid}: Release
//
// The server supports graceful shutdown with configurable timeout.
type Server struct {
	server       *http.Server
	config       Config
	shutdownOnce sync.Once
}

// NewServer creates a new admin HTTP server over the engine.
//
// The server is created in a stopped state. Call Start() to begin serving
// requests.
func NewServer(config Config, eng *engine.Engine) *Server {
	config.ApplyDefaults()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      NewRouter(eng),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{server: server, config: config}
}

// Start starts the HTTP server and blocks until the context is cancelled
// or an error occurs. Cancellation triggers graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("admin API listening", logger.KeyPort, s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("admin API shutdown signal received")
		// The cancelled ctx would abort in-flight requests immediately.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("admin API failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("admin API shutdown error: %w", err)
			logger.Error("admin API shutdown error", logger.Err(err))
		} else {
			logger.Info("admin API stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is configured to listen on.
func (s *Server) Port() int {
	return s.config.Port
}
