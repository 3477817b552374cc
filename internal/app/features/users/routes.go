// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the user endpoints.
// Typically: r.Mount("/api/users", users.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public
	r.Post("/", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Post("/forgot-password", h.HandleForgotPassword)
	r.Post("/reset-password/{id}/{token}", h.HandleResetPassword)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.With(auth.RequireRole(auth.RoleAdmin)).Get("/", h.ServeList)

		pr.Group(func(self chi.Router) {
			self.Use(auth.RequireSelfOrAdmin("id"))
			self.Get("/{id}", h.ServeUser)
			self.Put("/{id}", h.HandleUpdate)
			self.Delete("/{id}", h.HandleDelete)
			self.Post("/{id}/change-password", h.HandleChangePassword)
		})
	})

	return r
}
