package projectpolicy

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubmitterSources are the places a new project's submitter can come from,
// in priority order.
type SubmitterSources struct {
	// Body is the submittedBy value from the request body.
	Body string
	// Principal is the id of the authenticated caller, if any.
	Principal *primitive.ObjectID
	// TokenUserID decodes the request's bearer token; it is consulted only
	// when neither of the above yields an id. May be nil.
	TokenUserID func() (string, bool)
}

// ResolveSubmitter returns the first valid ObjectID among body, principal
// and token, or nil. Malformed hex values are skipped.
func ResolveSubmitter(src SubmitterSources) *primitive.ObjectID {
	if id, ok := parseID(src.Body); ok {
		return &id
	}
	if src.Principal != nil && !src.Principal.IsZero() {
		id := *src.Principal
		return &id
	}
	if src.TokenUserID != nil {
		if raw, ok := src.TokenUserID(); ok {
			if id, ok := parseID(raw); ok {
				return &id
			}
		}
	}
	return nil
}

func parseID(raw string) (primitive.ObjectID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil || id.IsZero() {
		return primitive.NilObjectID, false
	}
	return id, true
}
