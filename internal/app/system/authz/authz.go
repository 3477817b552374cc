// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the caller's role (lowercased), account ObjectID, and a
// found flag. Without a principal it returns "visitor", NilObjectID, false.
func UserCtx(r *http.Request) (role string, id primitive.ObjectID, ok bool) {
	p, ok := auth.CurrentPrincipal(r)
	if !ok || p.ID.IsZero() {
		return "visitor", primitive.NilObjectID, false
	}
	return strings.ToLower(p.Role), p.ID, true
}

// IsAdmin reports whether the caller is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, ok := UserCtx(r)
	return ok && role == auth.RoleAdmin
}

// IsReviewer reports whether the caller signed in as a reviewer.
func IsReviewer(r *http.Request) bool {
	role, _, ok := UserCtx(r)
	return ok && role == auth.RoleReviewer
}

// IsUser reports whether the caller is a regular submitting user.
func IsUser(r *http.Request) bool {
	role, _, ok := UserCtx(r)
	return ok && role == auth.RoleUser
}

// CallerID returns the caller's id, or nil when anonymous.
func CallerID(r *http.Request) *primitive.ObjectID {
	_, id, ok := UserCtx(r)
	if !ok {
		return nil
	}
	return &id
}
