package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/infra"
	"server/internal/middleware"
	"server/internal/ratelimit"
)

// NewRouter wires middleware and routes. The rate limiter applies only to
// the generation route: health probes and CORS preflights must never burn
// a client's quota.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger, limiter *ratelimit.Limiter) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	r.Get("/", app.Root)
	r.Get("/health", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.RateLimit(limiter)).Post("/generate", app.Generate)
	})

	return r
}
