package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"calc-history/internal/calculator"
	"calc-history/internal/config"
	"calc-history/internal/handlers"
	"calc-history/internal/history"
	"calc-history/internal/observability"
)

// NewRouter wires middleware, the calculator endpoints backed by store, and
// the operational endpoints.
func NewRouter(store history.Store, corsCfg config.CORSConfig) http.Handler {

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(CORS(corsCfg))
	r.Use(observability.RequestIDMiddleware)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.LoggingMiddleware)

	r.Get("/health", handlers.Health)

	r.Handle("/metrics", observability.PrometheusHandler())

	calculator.RegisterRoutes(r, calculator.NewHandler(store))

	return r
}
