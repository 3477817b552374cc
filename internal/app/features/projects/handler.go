// internal/app/features/projects/handler.go
package projects

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/reviewhub/internal/app/policy/projectpolicy"
	projectstore "github.com/dalemusser/reviewhub/internal/app/store/projects"
	reviewerstore "github.com/dalemusser/reviewhub/internal/app/store/reviewers"
	userstore "github.com/dalemusser/reviewhub/internal/app/store/users"
	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/auditlog"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/app/system/filestore"
	"github.com/dalemusser/reviewhub/internal/app/system/mailer"
	"github.com/dalemusser/reviewhub/internal/app/system/timeouts"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves /api/projects: submission, the assignment and decision
// workflow, reviews and admin notices.
type Handler struct {
	Log       *zap.Logger
	AuditLog  *auditlog.Logger
	Projects  *projectstore.Store
	Reviewers *reviewerstore.Store
	Users     *userstore.Store
	Issuer    *auth.Issuer
	Mail      mailer.Sender
	Files     filestore.Store

	MaxUploadBytes int64
	FrontendURL    string
}

func NewHandler(db *mongo.Database, issuer *auth.Issuer, mail mailer.Sender, files filestore.Store, maxUploadBytes int64, audit *auditlog.Logger, frontendURL string, logger *zap.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = filestore.DefaultMaxBytes
	}
	return &Handler{
		Log:            logger,
		AuditLog:       audit,
		Projects:       projectstore.New(db),
		Reviewers:      reviewerstore.New(db),
		Users:          userstore.New(db),
		Issuer:         issuer,
		Mail:           mail,
		Files:          files,
		MaxUploadBytes: maxUploadBytes,
		FrontendURL:    strings.TrimRight(frontendURL, "/"),
	}
}

func (h *Handler) projectURL(id primitive.ObjectID) string {
	return h.FrontendURL + "/projects/" + id.Hex()
}

func idParam(r *http.Request) (primitive.ObjectID, error) {
	return parseID(chi.URLParam(r, "id"), "Invalid id")
}

func parseID(raw, msg string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation(msg)
	}
	return id, nil
}

// storeErr maps the project store's sentinel errors to client errors.
func storeErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound("Project not found")
	case errors.Is(err, projectstore.ErrFinalized):
		return apperr.Validation(projectpolicy.MsgFinalized)
	case errors.Is(err, projectstore.ErrNothingToDecide):
		return apperr.Validation(projectpolicy.MsgNothingToDecide)
	default:
		return err
	}
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

// deleteFileQuietly removes a stored attachment. Failures are logged only.
func (h *Handler) deleteFileQuietly(r *http.Request, f *models.UploadedFile, projectID primitive.ObjectID) {
	if f == nil || f.PublicID == "" || h.Files == nil {
		return
	}
	ctx, cancel := timeouts.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Long(), h.Log, "delete project file")
	defer cancel()
	if err := h.Files.Delete(ctx, *f); err != nil {
		h.Log.Warn("could not delete project file",
			zap.String("project_id", projectID.Hex()),
			zap.String("public_id", f.PublicID),
			zap.Error(err))
	}
}
