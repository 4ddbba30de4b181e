package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the user routes on r. protect must bind the
// authenticated user; admin must run after it and reject non-admins.
func (h *Handlers) RegisterRoutes(r chi.Router, protect, admin func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(protect)
		r.Get("/me", h.Me)
		r.Patch("/updateMe", h.UpdateMe)
		r.Delete("/deleteMe", h.DeleteMe)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Get("/", h.List)
			r.Get("/{id}", h.Get)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}
