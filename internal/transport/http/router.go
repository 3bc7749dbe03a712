// Package httptransport composes the domain handlers, the middleware chain,
// and the operational endpoints into the server's router.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agora/internal/platform/metrics"
	"agora/internal/platform/middleware"
)

// Registrar is implemented by domain handlers that attach their routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports backend liveness for /healthz.
type HealthChecker func(r *http.Request) error

// NewRouter wires the public /api namespace plus /metrics and /healthz.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, health HealthChecker, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Latency(m))

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		for _, h := range handlers {
			h.Register(api)
		}
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(req); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
