// internal/app/features/projects/populate.go
package projects

import (
	"context"

	"github.com/dalemusser/reviewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// submitterView is the public slice of a User embedded in a project.
type submitterView struct {
	ID        primitive.ObjectID `json:"_id"`
	FirstName string             `json:"firstName"`
	LastName  string             `json:"lastName"`
	Email     string             `json:"email"`
}

// projectView is a Project with its reviewer ids and submitter expanded.
// The outer fields shadow the embedded ones of the same JSON name.
type projectView struct {
	models.Project
	AssignedReviewers []models.Reviewer `json:"assignedReviewers"`
	SubmittedBy       *submitterView    `json:"submittedBy"`
}

// populate expands a batch of projects with two lookups, one per
// collection. Reviewers that no longer exist are dropped; a submitter that
// no longer exists becomes null.
func (h *Handler) populate(ctx context.Context, list []models.Project) ([]projectView, error) {
	var reviewerIDs, userIDs []primitive.ObjectID
	for _, p := range list {
		reviewerIDs = append(reviewerIDs, p.AssignedReviewers...)
		if p.SubmittedBy != nil {
			userIDs = append(userIDs, *p.SubmittedBy)
		}
	}

	reviewers, err := h.Reviewers.FindByIDs(ctx, reviewerIDs)
	if err != nil {
		return nil, err
	}
	users, err := h.Users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]projectView, 0, len(list))
	for _, p := range list {
		v := projectView{Project: p, AssignedReviewers: []models.Reviewer{}}
		for _, id := range p.AssignedReviewers {
			if rv, ok := reviewers[id]; ok {
				v.AssignedReviewers = append(v.AssignedReviewers, rv)
			}
		}
		if p.SubmittedBy != nil {
			if u, ok := users[*p.SubmittedBy]; ok {
				v.SubmittedBy = &submitterView{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func (h *Handler) populateOne(ctx context.Context, p models.Project) (projectView, error) {
	views, err := h.populate(ctx, []models.Project{p})
	if err != nil {
		return projectView{}, err
	}
	return views[0], nil
}

// submitterEmail returns the populated submitter's address, or "".
func (v projectView) submitterEmail() string {
	if v.SubmittedBy == nil {
		return ""
	}
	return v.SubmittedBy.Email
}
