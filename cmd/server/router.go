package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/tempo/internal/api"
	apiMiddleware "github.com/phrazzld/tempo/internal/api/middleware"
	"github.com/phrazzld/tempo/internal/timer"
)

// setupRouter builds the HTTP router for the engine API and, when enabled,
// the reference session endpoint.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(apiMiddleware.RequestLogger)
	r.Use(middleware.Recoverer)

	timerHandler := api.NewTimerHandler(app.registry, app.workflow, app.logger)
	energyHandler := api.NewEnergyHandler(app.workflow, app.ledger, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/timers", timerHandler.Routes)
		r.Route("/energy", energyHandler.Routes)
		r.Post("/recommendations", energyHandler.Recommend)

		if app.sessions != nil {
			sessionHandler := api.NewSessionHandler(
				app.sessions,
				timer.StaticRates(app.config.Timer.DefaultRates),
				app.logger,
				api.WithTransactions(app.db),
			)
			authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokens)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				sessionHandler.Routes(r)
			})
		}
	})

	r.Get("/health", api.HealthHandler(app.registry))

	return r
}
