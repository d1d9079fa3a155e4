package server

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"

	"calc-history/internal/config"
)

// CORS builds the cross-origin middleware from cfg. A wildcard origin combined
// with credentials echoes the caller's Origin back, since browsers refuse a
// literal "*" on credentialed responses.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	if cfg.AllowCredentials && slices.Contains(cfg.AllowedOrigins, "*") {
		opts.AllowedOrigins = nil
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool {
			return true
		}
	}

	return cors.Handler(opts)
}
