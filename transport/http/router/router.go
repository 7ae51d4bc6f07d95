package router

import (
	"retreat/internal/handlers/auth"
	"retreat/internal/handlers/booking"
	"retreat/internal/handlers/intent"
	"retreat/internal/handlers/trip"
	"retreat/internal/handlers/webhook"
	"retreat/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Auth    auth.Handler
	Trip    trip.Handler
	Booking booking.Handler
	Intent  intent.Handler
	Webhook webhook.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	Middleware     middleware.AppMiddleware
}

// SetupRoutes mounts the versioned API. Webhooks bypass the rate limiter so provider retries are never throttled.
func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Group(func(public chi.Router) {
			public.Use(r.Middleware.RateLimit())

			r.DomainHandlers.Auth.Router(public)
			r.DomainHandlers.Trip.Router(public)
			r.DomainHandlers.Booking.Router(public)
			r.DomainHandlers.Intent.Router(public)
		})

		r.DomainHandlers.Webhook.Router(routerGroup)

		routerGroup.Route("/admin", func(admin chi.Router) {
			r.DomainHandlers.Auth.AdminRouter(admin)
			r.DomainHandlers.Trip.AdminRouter(admin)
			r.DomainHandlers.Booking.AdminRouter(admin)
			r.DomainHandlers.Intent.AdminRouter(admin)
			r.DomainHandlers.Webhook.AdminRouter(admin)
		})
	})
}

func New(domainHandlers DomainHandlers, appMiddleware middleware.AppMiddleware) Router {
	return Router{
		DomainHandlers: domainHandlers,
		Middleware:     appMiddleware,
	}
}
