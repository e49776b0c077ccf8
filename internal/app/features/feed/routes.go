// internal/app/features/feed/routes.go
package feed

import "github.com/go-chi/chi/v5"

// Routes returns the router mounted at /feed.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
