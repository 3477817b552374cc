// internal/app/features/reviewers/routes.go
package reviewers

import (
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the reviewer endpoints.
// Typically: r.Mount("/api/reviewers", reviewers.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.HandleLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeReviewer)

		// Self-service
		pr.With(auth.RequireSelfOrAdmin("id")).Put("/{id}", h.HandleUpdate)
		pr.With(auth.RequireSelfOrAdmin("id")).Post("/{id}/change-password", h.HandleChangePassword)

		// Admin
		pr.Group(func(ar chi.Router) {
			ar.Use(auth.RequireRole(auth.RoleAdmin))
			ar.Post("/", h.HandleCreate)
			ar.Delete("/{id}", h.HandleDelete)
			ar.Post("/{id}/set-password", h.HandleSetPassword)
		})
	})

	return r
}
