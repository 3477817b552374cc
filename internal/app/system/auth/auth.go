package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Roles                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	RoleUser     = models.RoleUser
	RoleReviewer = models.RoleReviewer
	RoleAdmin    = models.RoleAdmin
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-principal helper                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// Principal is the authenticated caller, decoded from a bearer token.
// ID refers to users._id or reviewers._id depending on Role.
type Principal struct {
	ID    primitive.ObjectID
	Email string
	Role  string
}

// IsAdmin reports whether the principal has the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

type ctxKey string

const principalKey ctxKey = "principal"

// CurrentPrincipal returns the principal & “found?” flag.
func CurrentPrincipal(r *http.Request) (*Principal, bool) {
	p, ok := r.Context().Value(principalKey).(*Principal)
	return p, ok && p != nil
}

// WithPrincipal returns r carrying p. Used by LoadPrincipal and by handler
// tests that bypass token parsing.
func WithPrincipal(r *http.Request, p *Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalKey, p))
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadPrincipal injects the principal into context when the request carries a
// valid access token. Invalid or missing tokens are not an error here; the
// route guards decide.
func LoadPrincipal(issuer *Issuer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			p, err := issuer.ParseAccess(token)
			if err != nil {
				logger.Debug("ignoring bearer token", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, WithPrincipal(r, p))
		})
	}
}

// RequireSignedIn answers 401 when no principal is present.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentPrincipal(r); !ok {
			respond.Message(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 without a principal and 403 when the principal's
// role is not in allowed. Admins always pass.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := CurrentPrincipal(r)
			if !ok || p.Role == "" {
				respond.Message(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			role := strings.ToLower(p.Role)
			if _, has := set[role]; !has && role != RoleAdmin {
				respond.Message(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSelfOrAdmin allows the request when the principal's id equals the
// {param} URL parameter, or the principal is an admin.
func RequireSelfOrAdmin(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := CurrentPrincipal(r)
			if !ok {
				respond.Message(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if p.IsAdmin() || p.ID.Hex() == chi.URLParam(r, param) {
				next.ServeHTTP(w, r)
				return
			}
			respond.Message(w, http.StatusForbidden, "Forbidden")
		})
	}
}
