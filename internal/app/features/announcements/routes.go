// internal/app/features/announcements/routes.go
package announcements

import (
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /announcements. Reads are public;
// writes need a signed-in member.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Show)
	r.Get("/{id}/team/{member}", h.TeamState)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Engage)
		r.Get("/{id}/history", h.History)
		r.Delete("/{id}", h.Delete)
	})
	return r
}
