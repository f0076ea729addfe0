package app

import (
	"net/http"
	"time"

	middle "watchpost/internals/middleware"
	"watchpost/internals/modules/account"
	"watchpost/internals/modules/engine"
	"watchpost/internals/modules/incident"
	"watchpost/internals/modules/monitor"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(c *Container) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middle.Logger(c.Logger))
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Mount("/accounts", account.Routes(c.accountHandler, c.authMW))

		v1.With(c.authMW.Handle).
			Mount("/monitors", monitor.Routes(c.monitorHandler))

		v1.With(c.authMW.Handle).
			Mount("/incidents", incident.Routes(c.incidentHandler))

		v1.With(c.authMW.Handle).
			Mount("/checks", engine.Routes(c.checkHandler))
	})

	return r
}
