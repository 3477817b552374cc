// internal/app/features/reviewers/account.go
package reviewers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/app/system/mailer"
	"github.com/dalemusser/reviewhub/internal/app/system/normalize"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"github.com/dalemusser/reviewhub/internal/app/system/timeouts"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type loginResponse struct {
	Reviewer    *models.Reviewer `json:"reviewer"`
	AccessToken string           `json:"accessToken"`
}

// HandleLogin authenticates a reviewer. The token carries role "reviewer".
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	email := normalize.Email(in.Email)
	if email == "" || in.Password == "" {
		respond.Error(w, r, h.Log, apperr.Validation("Email and password are required"))
		return
	}
	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailedRateLimit(r.Context(), r, models.RoleReviewer, email)
			respond.Message(w, http.StatusTooManyRequests, msg)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "reviewer login")
	defer cancel()

	rv, err := h.Reviewers.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, models.RoleReviewer, email)
		respond.Error(w, r, h.Log, apperr.NotFound("Reviewer not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !auth.CheckPassword(rv.PasswordHash, in.Password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, rv.ID, models.RoleReviewer, email)
		respond.Error(w, r, h.Log, apperr.Unauthorized("Invalid credentials"))
		return
	}

	token, err := h.Issuer.IssueAccess(rv.ID, rv.Email, models.RoleReviewer)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetAccount(email)
	}
	h.AuditLog.LoginSuccess(ctx, r, rv.ID, models.RoleReviewer, rv.Email)
	respond.JSON(w, http.StatusOK, loginResponse{Reviewer: rv, AccessToken: token})
}

// HandleChangePassword lets a reviewer replace their password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in struct {
		OldPassword     string `json:"oldPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if in.OldPassword == "" || in.NewPassword == "" || in.ConfirmPassword == "" {
		respond.Error(w, r, h.Log, apperr.Validation("All fields are required"))
		return
	}
	if in.NewPassword != in.ConfirmPassword {
		respond.Error(w, r, h.Log, apperr.Validation("New passwords do not match"))
		return
	}
	if len(in.NewPassword) < auth.MinPasswordLength {
		respond.Error(w, r, h.Log, apperr.Validation(minLengthMessage()))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "change reviewer password")
	defer cancel()

	rv, err := h.Reviewers.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("Reviewer not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !auth.CheckPassword(rv.PasswordHash, in.OldPassword) {
		respond.Error(w, r, h.Log, apperr.Validation("Incorrect old password"))
		return
	}
	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := h.Reviewers.SetPassword(ctx, id, hash); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.PasswordChanged(ctx, r, id, models.RoleReviewer)
	respond.Message(w, http.StatusOK, "Password updated successfully")
}

type setPasswordResponse struct {
	Message string `json:"message"`
	emailResult
}

// HandleSetPassword lets an admin overwrite a reviewer's password and
// optionally email it to them.
func (h *Handler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in struct {
		Password    string `json:"password"`
		EmailNotify bool   `json:"emailNotify"`
	}
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if len(in.Password) < auth.MinPasswordLength {
		respond.Error(w, r, h.Log, apperr.Validation(minLengthMessage()))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "set reviewer password")
	defer cancel()

	rv, err := h.Reviewers.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("Reviewer not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := h.Reviewers.SetPassword(ctx, id, hash); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var result emailResult
	if in.EmailNotify {
		sendErr := h.Mail.Send(mailer.BuildReviewerPasswordEmail(mailer.ReviewerPasswordData{
			Email:    rv.Email,
			Password: in.Password,
			LoginURL: h.loginURL(),
		}))
		if sendErr != nil {
			h.Log.Warn("reviewer password email not sent", zap.String("reviewer_id", id.Hex()), zap.Error(sendErr))
		}
		result = newEmailResult(sendErr)
	}

	h.AuditLog.PasswordSetByAdmin(ctx, r, id, result.EmailSent)
	respond.JSON(w, http.StatusOK, setPasswordResponse{Message: "Password updated", emailResult: result})
}

func minLengthMessage() string {
	return fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength)
}
