// internal/app/features/reviewers/create.go
package reviewers

import (
	"errors"
	"net/http"

	reviewerstore "github.com/dalemusser/reviewhub/internal/app/store/reviewers"
	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/app/system/inputval"
	"github.com/dalemusser/reviewhub/internal/app/system/mailer"
	"github.com/dalemusser/reviewhub/internal/app/system/normalize"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"github.com/dalemusser/reviewhub/internal/app/system/timeouts"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	"go.uber.org/zap"
)

type createInput struct {
	FirstName string `json:"firstName" validate:"notblank,max=100" label:"First name"`
	LastName  string `json:"lastName" validate:"notblank,max=100" label:"Last name"`
	Email     string `json:"email" validate:"required,email,max=254" label:"Email"`
	Title     string `json:"title" validate:"max=200" label:"Title"`
}

type createResponse struct {
	Reviewer models.Reviewer `json:"reviewer"`
	emailResult
}

// HandleCreate adds a reviewer with a generated password and emails the
// credentials. A failed email does not undo the account.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in.Email = normalize.Email(in.Email)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First()))
		return
	}

	password, err := auth.GeneratePassword()
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create reviewer")
	defer cancel()

	rv, err := h.Reviewers.Create(ctx, models.Reviewer{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Title:        in.Title,
	})
	if errors.Is(err, reviewerstore.ErrDuplicateEmail) {
		respond.Error(w, r, h.Log, apperr.Conflict("A reviewer with this email already exists"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	sendErr := h.Mail.Send(mailer.BuildReviewerWelcomeEmail(mailer.ReviewerWelcomeData{
		FirstName: rv.FirstName,
		Email:     rv.Email,
		Password:  password,
		LoginURL:  h.loginURL(),
	}))
	if sendErr != nil {
		h.Log.Warn("reviewer welcome email not sent",
			zap.String("reviewer_id", rv.ID.Hex()), zap.Error(sendErr))
	}
	result := newEmailResult(sendErr)

	h.AuditLog.ReviewerCreated(ctx, r, rv.ID, rv.Email, result.EmailSent)
	respond.JSON(w, http.StatusCreated, createResponse{Reviewer: rv, emailResult: result})
}
