// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project statuses.
const (
	StatusSubmitted = "submitted"
	StatusInReview  = "in-review"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
)

// DefaultClient is the client label used when neither a client nor a client
// email is supplied.
const DefaultClient = "Individual"

// UploadedFile is the single shape every storage backend produces.
type UploadedFile struct {
	URL          string `bson:"url" json:"url"`
	PublicID     string `bson:"public_id" json:"publicId"`
	OriginalName string `bson:"original_name" json:"originalName"`
}

// Review is embedded on Project in insertion order. ReviewerName is a
// snapshot taken at write time so it survives reviewer deletion.
type Review struct {
	ID           primitive.ObjectID  `bson:"_id" json:"_id"`
	ReviewerID   *primitive.ObjectID `bson:"reviewer_id" json:"reviewerId"`
	ReviewerName string              `bson:"reviewer_name" json:"reviewerName"`
	Comment      string              `bson:"comment" json:"comment"`
	CreatedAt    time.Time           `bson:"created_at" json:"createdAt"`
}

// Project is the workflow entity.
//
// NOTE:
//   - Status only becomes accepted/rejected through a decision, and a
//     decision requires at least one assigned reviewer or one review.
//   - Accepted and rejected are terminal.
type Project struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Title             string               `bson:"title" json:"title"`
	Client            string               `bson:"client" json:"client"`
	Summary           string               `bson:"summary" json:"summary"` // sanitized HTML
	Status            string               `bson:"status" json:"status"`
	SubmittedAt       time.Time            `bson:"submitted_at" json:"submittedAt"`
	AssignedReviewers []primitive.ObjectID `bson:"assigned_reviewers" json:"assignedReviewers"`
	SubmittedBy       *primitive.ObjectID  `bson:"submitted_by" json:"submittedBy"`
	ClientEmail       string               `bson:"client_email,omitempty" json:"clientEmail,omitempty"`
	File              *UploadedFile        `bson:"file,omitempty" json:"file,omitempty"`
	Reviews           []Review             `bson:"reviews" json:"reviews"`

	DecidedAt *time.Time `bson:"decided_at,omitempty" json:"decidedAt,omitempty"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
}

// IsFinal reports whether the project has been accepted or rejected.
func (p Project) IsFinal() bool {
	return IsFinalStatus(p.Status)
}

// IsFinalStatus reports whether s is a terminal status.
func IsFinalStatus(s string) bool {
	return s == StatusAccepted || s == StatusRejected
}

// IsValidStatus reports whether s is one of the four known statuses.
func IsValidStatus(s string) bool {
	switch s {
	case StatusSubmitted, StatusInReview, StatusAccepted, StatusRejected:
		return true
	}
	return false
}
