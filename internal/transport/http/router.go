package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobportal/internal/platform/metrics"
	"jobportal/pkg/platform/httputil"
	authmw "jobportal/pkg/platform/middleware/auth"
	"jobportal/pkg/platform/middleware/request"
	"jobportal/pkg/platform/middleware/requesttime"
)

// RouteRegistrar mounts a module's routes under /api/v1.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps carries everything the router needs.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	JWTValidator   authmw.JWTValidator
	HealthChecks   map[string]HealthCheck
	RequestTimeout time.Duration
	Modules        []RouteRegistrar
}

// NewRouter builds the chi router: baseline middleware on every route,
// unauthenticated /health and /metrics, and bearer-authenticated /api/v1.
func NewRouter(deps Deps) http.Handler {
	timeout := deps.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(deps.Logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(deps.Logger))
	r.Use(chimw.Timeout(timeout))
	r.Use(deps.Metrics.LatencyMiddleware)

	r.Get("/health", healthHandler(deps.HealthChecks))
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(request.ContentTypeJSON)
		api.Use(authmw.RequireAuth(deps.JWTValidator, deps.Logger))
		for _, module := range deps.Modules {
			module.Register(api)
		}
	})

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		httputil.WriteJSON(w, status, httputil.Envelope{
			"success": status == http.StatusOK,
			"checks":  results,
		})
	}
}
