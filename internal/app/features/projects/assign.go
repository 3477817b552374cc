// internal/app/features/projects/assign.go
package projects

import (
	"errors"
	"net/http"

	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"github.com/dalemusser/reviewhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type assignInput struct {
	ReviewerID string `json:"reviewerId"`
}

func readReviewerID(r *http.Request) (primitive.ObjectID, error) {
	var in assignInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		return primitive.NilObjectID, err
	}
	if in.ReviewerID == "" {
		return primitive.NilObjectID, apperr.Validation("reviewerId is required")
	}
	return parseID(in.ReviewerID, "Invalid reviewerId")
}

// HandleAssign adds a reviewer to a project. Assigning twice is a no-op.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	reviewerID, err := readReviewerID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "assign reviewer")
	defer cancel()

	if _, err := h.Reviewers.GetByID(ctx, reviewerID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apperr.NotFound("Reviewer not found")
		}
		respond.Error(w, r, h.Log, err)
		return
	}

	p, err := h.Projects.Assign(ctx, id, reviewerID)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	view, err := h.populateOne(ctx, *p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.ReviewerAssigned(ctx, r, id, reviewerID)
	respond.JSON(w, http.StatusOK, view)
}

// HandleUnassign removes a reviewer from a project. Removing a reviewer that
// is not assigned succeeds without change.
func (h *Handler) HandleUnassign(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	reviewerID, err := readReviewerID(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "unassign reviewer")
	defer cancel()

	p, err := h.Projects.Unassign(ctx, id, reviewerID)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	view, err := h.populateOne(ctx, *p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.ReviewerUnassigned(ctx, r, id, reviewerID)
	respond.JSON(w, http.StatusOK, view)
}
