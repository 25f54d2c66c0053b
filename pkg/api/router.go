package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lodestone-io/lodestone/internal/logger"
	"github.com/lodestone-io/lodestone/pkg/api/handlers"
	"github.com/lodestone-io/lodestone/pkg/engine"
)

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
func NewRouter(eng *engine.Engine) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(eng)

	// Health routes
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	repoHandler := handlers.NewRepositoryHandler(eng)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/repositories", func(r chi.Router) {
			r.Get("/", repoHandler.List)

			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", repoHandler.Get)
				r.Get("/namespaces", repoHandler.Namespaces)

				r.Route("/sessions", func(r chi.Router) {
					r.Post("/", repoHandler.CreateSession)

					r.Route("/{sid}", func(r chi.Router) {
						r.Delete("/", repoHandler.DeleteSession)

						r.Route("/locks", func(r chi.Router) {
							r.Post("/", repoHandler.AcquireLock)
							r.Post("/{lid}/refresh", repoHandler.RefreshLock)
							r.Delete("/{lid}", repoHandler.ReleaseLock)
						})
					})
				})
			})
		})
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger is a custom middleware that logs requests using the
// internal logger. Healthcheck requests are logged at DEBUG level to
// reduce noise.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
