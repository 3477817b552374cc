// internal/app/features/users/handler.go
package users

import (
	"net/http"
	"strings"

	userstore "github.com/dalemusser/reviewhub/internal/app/store/users"
	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/auditlog"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/app/system/mailer"
	"github.com/dalemusser/reviewhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the /api/users endpoints: registration, login, password
// recovery and profile management.
type Handler struct {
	Log         *zap.Logger
	AuditLog    *auditlog.Logger
	Users       *userstore.Store
	Issuer      *auth.Issuer
	Mail        mailer.Sender
	Limiter     *ratelimit.LoginLimiter
	FrontendURL string
}

func NewHandler(db *mongo.Database, issuer *auth.Issuer, mail mailer.Sender, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, frontendURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Log:         logger,
		AuditLog:    audit,
		Users:       userstore.New(db),
		Issuer:      issuer,
		Mail:        mail,
		Limiter:     limiter,
		FrontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

func idParam(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("Invalid id")
	}
	return id, nil
}
