// internal/app/features/members/routes.go
package members

import (
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /members. {ref} is a member id or
// @handle.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{ref}", h.ServeView)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Post("/{ref}/follow", h.HandleFollow)
		r.Put("/{ref}/profile", h.HandleProfileEdit)
	})
	return r
}
