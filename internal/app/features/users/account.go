// internal/app/features/users/account.go
package users

import (
	"errors"
	"net/http"

	userstore "github.com/dalemusser/reviewhub/internal/app/store/users"
	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/app/system/inputval"
	"github.com/dalemusser/reviewhub/internal/app/system/normalize"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"github.com/dalemusser/reviewhub/internal/app/system/timeouts"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type registerInput struct {
	FirstName    string `json:"firstName" validate:"max=100" label:"First name"`
	LastName     string `json:"lastName" validate:"max=100" label:"Last name"`
	Email        string `json:"email" validate:"required,email,max=254" label:"Email"`
	Password     string `json:"password" validate:"required,min=6" label:"Password"`
	Organization string `json:"organization" validate:"max=200" label:"Organization"`
	FieldOfStudy string `json:"fieldOfStudy" validate:"max=200" label:"Field of study"`
}

type tokenResponse struct {
	Error       bool         `json:"error"`
	UserInfo    *models.User `json:"userInfo,omitempty"`
	AccessToken string       `json:"accessToken"`
	Message     string       `json:"message"`
}

// HandleRegister creates a user account. The role is always "user"; admins
// are created at startup and reviewers through /api/reviewers.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in.Email = normalize.Email(in.Email)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First()))
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "register user")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Organization: normalize.Name(in.Organization),
		FieldOfStudy: normalize.Name(in.FieldOfStudy),
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		respond.Error(w, r, h.Log, apperr.Conflict("User already exists"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	token, err := h.Issuer.IssueAccess(u.ID, u.Email, u.Role)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Log.Info("user registered", zap.String("user_id", u.ID.Hex()))
	respond.JSON(w, http.StatusCreated, tokenResponse{
		AccessToken: token,
		Message:     "User registered successfully",
	})
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin checks credentials and returns an access token with the user.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	email := normalize.Email(in.Email)
	if email == "" || in.Password == "" {
		respond.Error(w, r, h.Log, apperr.Validation("Please fill all fields"))
		return
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailedRateLimit(r.Context(), r, models.RoleUser, email)
			respond.Message(w, http.StatusTooManyRequests, msg)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user login")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, models.RoleUser, email)
		respond.Error(w, r, h.Log, apperr.NotFound("User does not exist"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, u.Role, email)
		respond.Error(w, r, h.Log, apperr.Unauthorized("Invalid password"))
		return
	}

	token, err := h.Issuer.IssueAccess(u.ID, u.Email, u.Role)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetAccount(email)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Role, u.Email)
	respond.JSON(w, http.StatusOK, tokenResponse{
		UserInfo:    u,
		AccessToken: token,
		Message:     "Login successful",
	})
}
