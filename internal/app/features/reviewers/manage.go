// internal/app/features/reviewers/manage.go
package reviewers

import (
	"errors"
	"net/http"

	reviewerstore "github.com/dalemusser/reviewhub/internal/app/store/reviewers"
	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/inputval"
	"github.com/dalemusser/reviewhub/internal/app/system/normalize"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"github.com/dalemusser/reviewhub/internal/app/system/timeouts"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ServeList returns every reviewer sorted by name.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list reviewers")
	defer cancel()

	list, err := h.Reviewers.List(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []models.Reviewer{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// ServeReviewer returns one reviewer.
func (h *Handler) ServeReviewer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get reviewer")
	defer cancel()

	rv, err := h.Reviewers.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("Reviewer not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, rv)
}

type updateInput struct {
	FirstName *string `json:"firstName" validate:"omitempty,notblank,max=100" label:"First name"`
	LastName  *string `json:"lastName" validate:"omitempty,notblank,max=100" label:"Last name"`
	Email     *string `json:"email" validate:"omitempty,email,max=254" label:"Email"`
	Title     *string `json:"title" validate:"omitempty,max=200" label:"Title"`
}

// HandleUpdate changes a reviewer's name, email or title.
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
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First()))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update reviewer")
	defer cancel()

	rv, err := h.Reviewers.Update(ctx, id, reviewerstore.Update{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Title:     in.Title,
	})
	switch {
	case errors.Is(err, reviewerstore.ErrDuplicateEmail):
		respond.Error(w, r, h.Log, apperr.Conflict("A reviewer with this email already exists"))
		return
	case errors.Is(err, mongo.ErrNoDocuments):
		respond.Error(w, r, h.Log, apperr.NotFound("Reviewer not found"))
		return
	case err != nil:
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.ReviewerUpdated(ctx, r, id)
	respond.JSON(w, http.StatusOK, rv)
}

// HandleDelete removes a reviewer and unassigns them everywhere.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete reviewer")
	defer cancel()

	deleted, unassigned, err := h.Reviewers.Delete(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if deleted == 0 {
		respond.Error(w, r, h.Log, apperr.NotFound("Reviewer not found"))
		return
	}
	h.Log.Info("reviewer deleted",
		zap.String("reviewer_id", id.Hex()),
		zap.Int64("projects_unassigned", unassigned))
	h.AuditLog.ReviewerDeleted(ctx, r, id, unassigned)
	respond.Message(w, http.StatusOK, "Reviewer deleted")
}
