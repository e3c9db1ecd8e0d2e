package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/handlers"
	authmw "github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/middleware"
)

func New(
	h *handlers.EventsHandler,
	auth *authmw.AuthMiddleware,
	z *handlers.HealthHandler,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	r.Use(authmw.RequestID)
	r.Use(authmw.SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(authmw.AccessLog)

	r.Get("/healthz", z.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/discovery/v1", func(r chi.Router) {
		if cfg.RLEnabled {
			r.Use(httprate.LimitByIP(cfg.RLLimit, cfg.RLWindow))
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.Optional)
			r.Get("/events", h.List)
			r.Get("/events/{event_id}", h.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Require)

			r.Put("/events/{event_id}/bookmark", h.Bookmark)
			r.Delete("/events/{event_id}/bookmark", h.Unbookmark)

			r.With(authmw.RequireRole(event.RoleHost, event.RoleAdmin)).Post("/events", h.Create)
			r.With(authmw.RequireRole(event.RoleAdmin)).Post("/admin/events/{event_id}/approve", h.Approve)
		})
	})

	return r
}
