// Package httptransport assembles the HTTP surface: feature handlers mounted
// under /api, plus the health and metrics endpoints.
package httptransport

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	enshandler "ensgraph/internal/ens/handler"
	graphhandler "ensgraph/internal/graph/handler"
	"ensgraph/internal/platform/metrics"
	"ensgraph/internal/platform/middleware"
	"ensgraph/pkg/platform/httputil"
)

// Deps carries everything the router mounts. DB and Redis pinger may be nil;
// health then reports only what is wired.
type Deps struct {
	ENS     *enshandler.Handler
	Graph   *graphhandler.Handler
	Metrics *metrics.Metrics
	DB      *sql.DB
	Redis   interface {
		Health(ctx context.Context) error
	}
	Logger *slog.Logger
}

// NewRouter wires all endpoints with the shared middleware stack.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	r.Route("/api", func(api chi.Router) {
		deps.ENS.Register(api)
		deps.Graph.Register(api)
	})

	r.Get("/healthz", healthHandler(deps))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := map[string]string{"status": "ok"}

		if deps.DB != nil {
			if err := deps.DB.PingContext(ctx); err != nil {
				status["status"] = "degraded"
				status["database"] = "unreachable"
			} else {
				status["database"] = "ok"
			}
		}
		if deps.Redis != nil {
			if err := deps.Redis.Health(ctx); err != nil {
				status["status"] = "degraded"
				status["cache"] = "unreachable"
			} else {
				status["cache"] = "ok"
			}
		}

		code := http.StatusOK
		if status["status"] != "ok" {
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, status)
	}
}
