// internal/app/features/reviewers/handler.go
package reviewers

import (
	"net/http"
	"strings"

	reviewerstore "github.com/dalemusser/reviewhub/internal/app/store/reviewers"
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

// Handler serves /api/reviewers. Reviewer accounts are created by admins and
// receive a generated password by email.
type Handler struct {
	Log         *zap.Logger
	AuditLog    *auditlog.Logger
	Reviewers   *reviewerstore.Store
	Issuer      *auth.Issuer
	Mail        mailer.Sender
	Limiter     *ratelimit.LoginLimiter
	FrontendURL string
}

func NewHandler(db *mongo.Database, issuer *auth.Issuer, mail mailer.Sender, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, frontendURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Log:         logger,
		AuditLog:    audit,
		Reviewers:   reviewerstore.New(db),
		Issuer:      issuer,
		Mail:        mail,
		Limiter:     limiter,
		FrontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

func (h *Handler) loginURL() string {
	return h.FrontendURL + "/login"
}

func idParam(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("Invalid id")
	}
	return id, nil
}

// emailResult is embedded in responses whose side effect is an email.
type emailResult struct {
	EmailSent  bool    `json:"emailSent"`
	EmailError *string `json:"emailError"`
}

func newEmailResult(err error) emailResult {
	sent, msg := mailer.Outcome(err)
	return emailResult{EmailSent: sent, EmailError: msg}
}
