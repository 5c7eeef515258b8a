package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ryanbastic/go-locator/internal/metrics"
)

// MaxBodyBytes bounds every request body.
const MaxBodyBytes = 1 << 20

// Resource registers the operations of one record kind.
type Resource interface {
	Register(api huma.API)
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(logger *slog.Logger, resources []Resource, health *HealthHandler) http.Handler {
	mux := chi.NewRouter()

	mux.Use(RequestID)
	mux.Use(Logging(logger))
	mux.Use(Recovery(logger))
	mux.Use(metrics.Metrics)
	mux.Use(middleware.RequestSize(MaxBodyBytes))

	mux.Get("/livez", health.Livez)
	mux.Get("/readyz", health.Readyz)
	mux.Handle("/metrics", promhttp.Handler())

	config := huma.DefaultConfig("Locator API", "1.0.0")
	config.Info.Description = "CRUD endpoints for users, their locations and groups."
	api := humachi.New(mux, config)

	for _, r := range resources {
		r.Register(api)
	}

	return mux
}
