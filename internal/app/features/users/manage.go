// internal/app/features/users/manage.go
package users

import (
	"errors"
	"net/http"

	userstore "github.com/dalemusser/reviewhub/internal/app/store/users"
	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/authz"
	"github.com/dalemusser/reviewhub/internal/app/system/inputval"
	"github.com/dalemusser/reviewhub/internal/app/system/normalize"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"github.com/dalemusser/reviewhub/internal/app/system/timeouts"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeList returns every user sorted by name. Admin only.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list users")
	defer cancel()

	list, err := h.Users.List(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []models.User{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// ServeUser returns one user.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get user")
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("User not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

type updateInput struct {
	FirstName    *string `json:"firstName" validate:"omitempty,max=100" label:"First name"`
	LastName     *string `json:"lastName" validate:"omitempty,max=100" label:"Last name"`
	Email        *string `json:"email" validate:"omitempty,email,max=254" label:"Email"`
	Organization *string `json:"organization" validate:"omitempty,max=200" label:"Organization"`
	FieldOfStudy *string `json:"fieldOfStudy" validate:"omitempty,max=200" label:"Field of study"`
	Role         *string `json:"role" validate:"omitempty,oneof=user reviewer admin" label:"Role"`
}

// HandleUpdate changes profile fields. Only an admin may change a role; a
// non-admin sending their current role unchanged is accepted.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in updateInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if in.Email != nil {
		e := normalize.Email(*in.Email)
		in.Email = &e
	}
	if in.Role != nil {
		role := normalize.Role(*in.Role)
		in.Role = &role
	}
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First()))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update user")
	defer cancel()

	cur, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("User not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	roleChanged := in.Role != nil && *in.Role != cur.Role
	if roleChanged && !authz.IsAdmin(r) {
		respond.Error(w, r, h.Log, apperr.Forbidden("Only an admin can change roles"))
		return
	}
	if !roleChanged {
		in.Role = nil
	}

	u, err := h.Users.Update(ctx, id, userstore.Update{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Organization: in.Organization,
		FieldOfStudy: in.FieldOfStudy,
		Role:         in.Role,
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		respond.Error(w, r, h.Log, apperr.Conflict("User already exists"))
		return
	case errors.Is(err, mongo.ErrNoDocuments):
		respond.Error(w, r, h.Log, apperr.NotFound("User not found"))
		return
	case err != nil:
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.UserUpdated(ctx, r, id, roleChanged)
	respond.JSON(w, http.StatusOK, u)
}

// HandleDelete removes a user. Their projects keep the dangling reference.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete user")
	defer cancel()

	n, err := h.Users.Delete(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if n == 0 {
		respond.Error(w, r, h.Log, apperr.NotFound("User not found"))
		return
	}
	h.AuditLog.UserDeleted(ctx, r, id)
	respond.Message(w, http.StatusOK, "User deleted")
}
