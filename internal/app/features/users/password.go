// internal/app/features/users/password.go
package users

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/app/system/mailer"
	"github.com/dalemusser/reviewhub/internal/app/system/normalize"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"github.com/dalemusser/reviewhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const forgotPasswordGeneric = "If the email exists, a reset link will be sent."

// HandleForgotPassword mails a reset link. Unknown addresses get the same
// 200 response as known ones.
func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	email := normalize.Email(in.Email)
	if email == "" {
		respond.Error(w, r, h.Log, apperr.Validation("Email is required"))
		return
	}
	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, email); !ok {
			respond.Message(w, http.StatusTooManyRequests, msg)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "forgot password")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Message(w, http.StatusOK, forgotPasswordGeneric)
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	token, err := h.Issuer.IssueReset(u.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	msg := mailer.BuildPasswordResetEmail(mailer.PasswordResetData{
		Email:     u.Email,
		ResetURL:  fmt.Sprintf("%s/reset-password/%s/%s", h.FrontendURL, u.ID.Hex(), token),
		ExpiresIn: humanDuration(h.Issuer.ResetTTL()),
	})
	if err := h.Mail.Send(msg); err != nil {
		h.Log.Error("password reset email failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		h.AuditLog.PasswordResetRequested(ctx, r, u.ID, false)
		respond.Message(w, http.StatusInternalServerError, "Error sending email. Please try again later.")
		return
	}
	h.AuditLog.PasswordResetRequested(ctx, r, u.ID, true)
	respond.Message(w, http.StatusOK, "Password reset link sent to your email.")
}

// HandleResetPassword sets a new password from a reset link. The token must
// be reset-scoped and issued for the {id} in the path.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	tokenUserID, err := h.Issuer.ParseReset(chi.URLParam(r, "token"))
	if err != nil {
		h.Log.Debug("reset token rejected", zap.Error(err))
		respond.Error(w, r, h.Log, apperr.Validation("Invalid token."))
		return
	}
	if tokenUserID != id.Hex() {
		respond.Error(w, r, h.Log, apperr.Validation("Invalid token or user ID mismatch."))
		return
	}

	var in struct {
		Password string `json:"password"`
	}
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if len(in.Password) < auth.MinPasswordLength {
		respond.Error(w, r, h.Log, apperr.Validation(fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength)))
		return
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "reset password")
	defer cancel()

	if err := h.Users.SetPassword(ctx, id, hash); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, r, h.Log, apperr.NotFound("User not found."))
			return
		}
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.PasswordReset(ctx, r, id)
	respond.Message(w, http.StatusOK, "Password reset successfully.")
}

type changePasswordInput struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// HandleChangePassword replaces the password after checking the old one.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in changePasswordInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if in.OldPassword == "" || in.NewPassword == "" || in.ConfirmPassword == "" {
		respond.Error(w, r, h.Log, apperr.Validation("All fields are required"))
		return
	}
	if in.NewPassword != in.ConfirmPassword {
		respond.Error(w, r, h.Log, apperr.Validation("Please confirm correctly!"))
		return
	}
	if len(in.NewPassword) < auth.MinPasswordLength {
		respond.Error(w, r, h.Log, apperr.Validation(fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength)))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "change user password")
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("User not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !auth.CheckPassword(u.PasswordHash, in.OldPassword) {
		respond.Error(w, r, h.Log, apperr.Validation("Incorrect old password"))
		return
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := h.Users.SetPassword(ctx, id, hash); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.PasswordChanged(ctx, r, id, u.Role)
	respond.Message(w, http.StatusOK, "Password updated successfully")
}

// humanDuration renders whole days as "3 days" and anything else in hours.
func humanDuration(d time.Duration) string {
	day := 24 * time.Hour
	if d >= day && d%day == 0 {
		n := int(d / day)
		if n == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", n)
	}
	hours := int(d.Round(time.Hour) / time.Hour)
	if hours <= 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
