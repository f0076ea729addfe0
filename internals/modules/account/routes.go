package account

import (
	middle "watchpost/internals/middleware"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, authMW *middle.AuthMiddleware) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.LogIn)
	r.With(authMW.Handle).Get("/profile", h.GetProfile)
	r.With(authMW.Handle).Put("/settings/notifications", h.UpdateNotificationSettings)

	return r
}
