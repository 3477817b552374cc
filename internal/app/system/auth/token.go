// internal/app/system/auth/token.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Token scopes. Reset tokens are only accepted by the reset-password route;
// LoadPrincipal ignores them.
const (
	ScopeAccess = "access"
	ScopeReset  = "reset"
)

// Default lifetimes.
const (
	DefaultAccessTTL = 10 * time.Hour
	DefaultResetTTL  = 72 * time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongScope   = errors.New("token scope mismatch")
)

// Claims is the JWT payload.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	Scope  string `json:"scope"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens with a shared secret.
type Issuer struct {
	secret    []byte
	accessTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

// NewIssuer returns an Issuer. Zero TTLs fall back to the defaults.
func NewIssuer(secret string, accessTTL, resetTTL time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if resetTTL <= 0 {
		resetTTL = DefaultResetTTL
	}
	return &Issuer{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		resetTTL:  resetTTL,
		now:       time.Now,
	}, nil
}

// ResetTTL is the lifetime of password-reset tokens.
func (i *Issuer) ResetTTL() time.Duration { return i.resetTTL }

// IssueAccess signs an access token for the given account.
func (i *Issuer) IssueAccess(id primitive.ObjectID, email, role string) (string, error) {
	return i.issue(id, email, role, ScopeAccess, i.accessTTL)
}

// IssueReset signs a password-reset token carrying only the account id.
func (i *Issuer) IssueReset(id primitive.ObjectID) (string, error) {
	return i.issue(id, "", "", ScopeReset, i.resetTTL)
}

func (i *Issuer) issue(id primitive.ObjectID, email, role, scope string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: id.Hex(),
		Email:  email,
		Role:   role,
		Scope:  scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry and returns the claims.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseAccess verifies an access token and returns its principal.
func (i *Issuer) ParseAccess(tokenString string) (*Principal, error) {
	claims, err := i.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Scope != ScopeAccess {
		return nil, ErrWrongScope
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad user id", ErrInvalidToken)
	}
	return &Principal{ID: id, Email: claims.Email, Role: claims.Role}, nil
}

// ParseReset verifies a reset token and returns the account id it names.
func (i *Issuer) ParseReset(tokenString string) (string, error) {
	claims, err := i.Parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Scope != ScopeReset {
		return "", ErrWrongScope
	}
	return claims.UserID, nil
}
