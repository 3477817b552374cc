// internal/app/features/projects/submitter.go
package projects

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/reviewhub/internal/app/policy/projectpolicy"
	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/app/system/authz"
	"github.com/dalemusser/reviewhub/internal/app/system/normalize"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"github.com/dalemusser/reviewhub/internal/app/system/timeouts"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// resolveSubmitter picks the user a new project is recorded against.
// Reviewer principals are not users, so their id is never used.
func (h *Handler) resolveSubmitter(r *http.Request, body string) *primitive.ObjectID {
	src := projectpolicy.SubmitterSources{Body: body}
	if !authz.IsReviewer(r) {
		src.Principal = authz.CallerID(r)
	}
	src.TokenUserID = func() (string, bool) {
		raw, ok := auth.BearerToken(r)
		if !ok || h.Issuer == nil {
			return "", false
		}
		p, err := h.Issuer.ParseAccess(raw)
		if err != nil || p.Role == auth.RoleReviewer {
			return "", false
		}
		return p.ID.Hex(), true
	}
	return projectpolicy.ResolveSubmitter(src)
}

// emailOf returns the account email of a user, or "" when the user is
// unknown.
func (h *Handler) emailOf(ctx context.Context, id *primitive.ObjectID) (string, error) {
	if id == nil {
		return "", nil
	}
	u, err := h.Users.GetByID(ctx, *id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

type setSubmitterInput struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// HandleSetSubmitter points a project at an existing user, by id or email,
// and copies that user's email into clientEmail.
func (h *Handler) HandleSetSubmitter(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in setSubmitterInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in.UserID = strings.TrimSpace(in.UserID)
	in.Email = normalize.Email(in.Email)
	if in.UserID == "" && in.Email == "" {
		respond.Error(w, r, h.Log, apperr.Validation("userId or email is required"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set project submitter")
	defer cancel()

	if _, err := h.Projects.GetByID(ctx, id); err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}

	var u *models.User
	if in.UserID != "" {
		uid, perr := parseID(in.UserID, "Invalid userId")
		if perr != nil {
			respond.Error(w, r, h.Log, perr)
			return
		}
		u, err = h.Users.GetByID(ctx, uid)
	} else {
		u, err = h.Users.GetByEmail(ctx, in.Email)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("User not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	p, err := h.Projects.SetSubmitter(ctx, id, u.ID, u.Email)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	view, err := h.populateOne(ctx, *p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.ProjectSubmitterSet(ctx, r, id, u.ID)
	respond.JSON(w, http.StatusOK, view)
}
