// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/reviewhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the collections (if missing) and attaches JSON-Schema
// validators. Servers that reject collMod validators (some DocumentDB
// versions) are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("reviewers", reviewersSchema())
	ensure("projects", projectsSchema())
	ensure("audit_events", auditEventsSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "password", "role"},
			"properties": bson.M{
				"first_name":     bson.M{"bsonType": "string"},
				"last_name":      bson.M{"bsonType": "string"},
				"name_ci":        bson.M{"bsonType": "string"},
				"email":          nonBlank,
				"password":       bson.M{"bsonType": "string"},
				"role":           bson.M{"enum": bson.A{models.RoleUser, models.RoleReviewer, models.RoleAdmin}},
				"organization":   bson.M{"bsonType": "string"},
				"field_of_study": bson.M{"bsonType": "string"},
			},
		},
	}
}

func reviewersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"first_name", "last_name", "email", "password", "role"},
			"properties": bson.M{
				"first_name": bson.M{"bsonType": "string"},
				"last_name":  bson.M{"bsonType": "string"},
				"email":      nonBlank,
				"password":   bson.M{"bsonType": "string"},
				"title":      bson.M{"bsonType": "string"},
				"role":       bson.M{"enum": bson.A{models.RoleReviewer}},
			},
		},
	}
}

func projectsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "status", "submitted_at"},
			"properties": bson.M{
				"title":   nonBlank,
				"client":  bson.M{"bsonType": "string"},
				"summary": bson.M{"bsonType": "string"},
				"status": bson.M{"enum": bson.A{
					models.StatusSubmitted, models.StatusInReview, models.StatusAccepted, models.StatusRejected,
				}},
				"submitted_at":       bson.M{"bsonType": "date"},
				"assigned_reviewers": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"submitted_by":       bson.M{"bsonType": bson.A{"objectId", "null"}},
				"client_email":       bson.M{"bsonType": "string"},
				"file": bson.M{
					"bsonType": bson.A{"object", "null"},
					"properties": bson.M{
						"url":           bson.M{"bsonType": "string"},
						"public_id":     bson.M{"bsonType": "string"},
						"original_name": bson.M{"bsonType": "string"},
					},
				},
				"reviews": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"_id", "comment", "created_at"},
						"properties": bson.M{
							"reviewer_id":   bson.M{"bsonType": bson.A{"objectId", "null"}},
							"reviewer_name": bson.M{"bsonType": "string"},
							"comment":       bson.M{"bsonType": "string"},
							"created_at":    bson.M{"bsonType": "date"},
						},
					},
				},
				"decided_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func auditEventsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"category", "event_type", "created_at"},
			"properties": bson.M{
				"category":   bson.M{"enum": bson.A{"auth", "admin"}},
				"event_type": nonBlank,
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}
