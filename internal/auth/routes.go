package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the auth routes on r. protect must bind the
// authenticated user; limit throttles the credential guessing routes.
func (h *Handlers) RegisterRoutes(r chi.Router, protect, limit func(http.Handler) http.Handler) {
	r.Post("/signup", h.Signup)
	r.Get("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(limit)
		r.Post("/login", h.Login)
		r.Post("/forgotPassword", h.ForgotPassword)
		r.Patch("/resetPassword/{token}", h.ResetPassword)
	})

	r.With(protect).Patch("/updateMyPassword", h.UpdateMyPassword)
}
