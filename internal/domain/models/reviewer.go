// internal/domain/models/reviewer.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reviewer is an identity created by an admin. It authenticates
// independently of User.
type Reviewer struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FirstName    string             `bson:"first_name" json:"firstName"`
	LastName     string             `bson:"last_name" json:"lastName"`
	NameCI       string             `bson:"name_ci" json:"-"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	Title        string             `bson:"title,omitempty" json:"title,omitempty"`
	Role         string             `bson:"role" json:"role"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// DisplayName is the name snapshotted onto reviews. Falls back to the email
// when both name parts are blank.
func (r Reviewer) DisplayName() string {
	if n := joinName(r.FirstName, r.LastName); n != "" {
		return n
	}
	return r.Email
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
