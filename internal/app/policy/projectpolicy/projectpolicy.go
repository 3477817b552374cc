// Package projectpolicy holds the project workflow rules.
//
// Rules:
//   - A decision is "accept" or "reject" and maps to status accepted/rejected
//   - A project can be decided only when it has an assigned reviewer or a review
//   - accepted and rejected are final: no further decisions or (un)assignments
//   - Submitters may edit status only between submitted and in-review
//   - Only the submitter or an admin may edit or delete a project
//   - Reviewers may comment only on projects they are assigned to
//
// Everything here is pure; handlers load the documents and call in.
package projectpolicy

import (
	"strings"

	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client-facing messages.
const (
	MsgBadDecision     = "decision must be accept or reject"
	MsgNothingToDecide = "Cannot accept or reject project without an assigned reviewer or at least one review/comment"
	MsgFinalized       = "Project has already been finalized"
	MsgBadStatus       = "Status can only be set to submitted or in-review"
	MsgNotAssigned     = "You are not assigned to this project"
)

// DecisionStatus maps a decision verb to the resulting status.
func DecisionStatus(decision string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case "accept":
		return models.StatusAccepted, nil
	case "reject":
		return models.StatusRejected, nil
	default:
		return "", apperr.Validation(MsgBadDecision)
	}
}

// CanDecide returns nil when p may move to accepted/rejected.
func CanDecide(p models.Project) error {
	if p.IsFinal() {
		return apperr.Validation(MsgFinalized)
	}
	if len(p.AssignedReviewers) == 0 && len(p.Reviews) == 0 {
		return apperr.Validation(MsgNothingToDecide)
	}
	return nil
}

// CanChangeAssignment returns nil when reviewers may be assigned to or
// unassigned from p.
func CanChangeAssignment(p models.Project) error {
	if p.IsFinal() {
		return apperr.Validation(MsgFinalized)
	}
	return nil
}

// EditableStatus validates a status supplied on update. Empty means unchanged.
func EditableStatus(status string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(status))
	switch s {
	case "":
		return "", nil
	case models.StatusSubmitted, models.StatusInReview:
		return s, nil
	default:
		return "", apperr.Validation(MsgBadStatus)
	}
}

// CanModify reports whether the principal may edit or delete p: admins
// always, otherwise only the recorded submitter.
func CanModify(p models.Project, who *auth.Principal) bool {
	if who == nil {
		return false
	}
	if who.IsAdmin() {
		return true
	}
	return p.SubmittedBy != nil && *p.SubmittedBy == who.ID
}

// CanView reports whether the principal may read p. Users see their own
// submissions; reviewers and admins see everything.
func CanView(p models.Project, who *auth.Principal) bool {
	if who == nil {
		return false
	}
	if who.Role == auth.RoleUser {
		return p.SubmittedBy != nil && *p.SubmittedBy == who.ID
	}
	return true
}

// IsAssigned reports whether reviewerID is in p's assignment list.
func IsAssigned(p models.Project, reviewerID primitive.ObjectID) bool {
	for _, id := range p.AssignedReviewers {
		if id == reviewerID {
			return true
		}
	}
	return false
}

// ReviewAuthor decides which reviewer id a new review is attributed to.
// Reviewer principals always comment as themselves and must be assigned;
// admins may name a reviewer or comment anonymously.
func ReviewAuthor(p models.Project, who *auth.Principal, requested *primitive.ObjectID) (*primitive.ObjectID, error) {
	if who == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	if who.Role == auth.RoleReviewer {
		if !IsAssigned(p, who.ID) {
			return nil, apperr.Forbidden(MsgNotAssigned)
		}
		id := who.ID
		return &id, nil
	}
	return requested, nil
}

// ReviewerName picks the display name stored on a review: the name resolved
// from the reviewer record, else the supplied one, else "Reviewer".
func ReviewerName(resolved, supplied string) string {
	if n := strings.TrimSpace(resolved); n != "" {
		return n
	}
	if n := strings.TrimSpace(supplied); n != "" {
		return n
	}
	return "Reviewer"
}

// ClientLabel picks the project's client label.
func ClientLabel(client, clientEmail string) string {
	if c := strings.TrimSpace(client); c != "" {
		return c
	}
	if e := strings.TrimSpace(clientEmail); e != "" {
		return e
	}
	return models.DefaultClient
}

// RecipientEmail picks where decision mail goes: the project's clientEmail,
// else the submitter's account email.
func RecipientEmail(clientEmail, submitterEmail string) string {
	if e := strings.TrimSpace(clientEmail); e != "" {
		return e
	}
	return strings.TrimSpace(submitterEmail)
}
