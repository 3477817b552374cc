// internal/app/features/projects/reviews.go
package projects

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/reviewhub/internal/app/policy/projectpolicy"
	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"github.com/dalemusser/reviewhub/internal/app/system/timeouts"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ServeReviews lists a project's reviews in the order they were written.
func (h *Handler) ServeReviews(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list reviews")
	defer cancel()

	p, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	who, _ := auth.CurrentPrincipal(r)
	if !projectpolicy.CanView(*p, who) {
		respond.Error(w, r, h.Log, apperr.Forbidden("Access denied"))
		return
	}
	reviews := p.Reviews
	if reviews == nil {
		reviews = []models.Review{}
	}
	respond.JSON(w, http.StatusOK, reviews)
}

type reviewInput struct {
	Comment      string `json:"comment"`
	ReviewerID   string `json:"reviewerId"`
	ReviewerName string `json:"reviewerName"`
}

// HandleAddReview appends a comment. Reviewers comment as themselves and
// only on projects assigned to them; admins may attribute the comment.
func (h *Handler) HandleAddReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in reviewInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	comment := strings.TrimSpace(in.Comment)
	if htmlsanitize.StripTags(comment) == "" {
		respond.Error(w, r, h.Log, apperr.Validation("Comment is required"))
		return
	}
	var requested *primitive.ObjectID
	if strings.TrimSpace(in.ReviewerID) != "" {
		rid, err := parseID(in.ReviewerID, "Invalid reviewerId")
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		requested = &rid
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "add review")
	defer cancel()

	p, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	who, _ := auth.CurrentPrincipal(r)
	author, err := projectpolicy.ReviewAuthor(*p, who, requested)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var resolved string
	if author != nil {
		rv, err := h.Reviewers.GetByID(ctx, *author)
		switch {
		case err == nil:
			resolved = rv.DisplayName()
		case !errors.Is(err, mongo.ErrNoDocuments):
			h.Log.Warn("reviewer lookup failed; using supplied name",
				zap.String("project_id", id.Hex()),
				zap.String("reviewer_id", author.Hex()),
				zap.Error(err))
		}
	}

	review, err := h.Projects.AddReview(ctx, id, models.Review{
		ReviewerID:   author,
		ReviewerName: projectpolicy.ReviewerName(resolved, in.ReviewerName),
		Comment:      comment,
	})
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	respond.JSON(w, http.StatusCreated, review)
}
