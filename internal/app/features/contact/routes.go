// internal/app/features/contact/routes.go
package contact

import "github.com/go-chi/chi/v5"

// Routes mounts the public contact form endpoint.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleSubmit)
	return r
}
