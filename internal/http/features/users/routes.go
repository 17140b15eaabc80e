package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers profile routes. authenticated guards the self
// routes; admin is applied after it on the administrative routes.
func (h *Handler) RegisterRoutes(r chi.Router, authenticated, admin func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authenticated)
		r.Get("/me", h.GetMe)
		r.Patch("/me", h.UpdateMe)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Get("/get-all-users", h.List)
			r.Get("/get-user/{id}", h.Get)
			r.Put("/update-user/{id}", h.Update)
			r.Delete("/delete-user/{id}", h.Delete)
			r.Patch("/users/{id}/status", h.SetStatus)
			r.Get("/user-stats", h.Stats)
		})
	})
}
