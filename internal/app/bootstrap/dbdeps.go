// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/reviewhub/internal/app/system/filestore"
	"github.com/dalemusser/reviewhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// ConnectDB fills every field; Shutdown releases them in reverse order.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Files stores project attachments on the configured backend.
	Files filestore.Store

	// LoginLimiter is shared by the user and reviewer login endpoints.
	LoginLimiter *ratelimit.LoginLimiter
}
