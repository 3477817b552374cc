// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a principal can carry. Reviewers live in their own collection but
// share the role vocabulary so tokens are structurally identical.
const (
	RoleUser     = "user"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
)

// User is a submitter (or an admin). Deleting a user does not cascade;
// projects may keep a dangling submitted_by reference.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FirstName    string             `bson:"first_name" json:"firstName"`
	LastName     string             `bson:"last_name" json:"lastName"`
	NameCI       string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	Role         string             `bson:"role" json:"role"` // user | reviewer | admin
	Organization string             `bson:"organization,omitempty" json:"organization,omitempty"`
	FieldOfStudy string             `bson:"field_of_study,omitempty" json:"fieldOfStudy,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// FullName joins the name parts.
func (u User) FullName() string {
	return joinName(u.FirstName, u.LastName)
}
