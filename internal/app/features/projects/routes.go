// internal/app/features/projects/routes.go
package projects

import (
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the project endpoints.
// Typically: r.Mount("/api/projects", projects.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public: anonymous submissions are allowed.
	r.Post("/", h.HandleCreate)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Post("/upload", h.HandleUpload)
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeProject)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)

		pr.Get("/{id}/reviews", h.ServeReviews)
		pr.With(auth.RequireRole(auth.RoleReviewer)).Post("/{id}/reviews", h.HandleAddReview)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireRole(auth.RoleAdmin))
		ar.Post("/{id}/assign", h.HandleAssign)
		ar.Post("/{id}/unassign", h.HandleUnassign)
		ar.Post("/{id}/decision", h.HandleDecision)
		ar.Post("/{id}/notify", h.HandleNotify)
		ar.Post("/{id}/set-submitter", h.HandleSetSubmitter)
	})

	return r
}
