// internal/app/features/updates/routes.go
package updates

import (
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /updates.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}", h.Show)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Engage)
		r.Delete("/{id}", h.Delete)
	})
	return r
}
