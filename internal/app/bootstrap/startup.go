// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	userstore "github.com/dalemusser/reviewhub/internal/app/store/users"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/getsentry/sentry-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// It starts error reporting when a Sentry DSN is set and makes sure the
// configured admin account exists.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              appCfg.SentryDSN,
			Environment:      coreCfg.Env,
			AttachStacktrace: true,
		}); err != nil {
			logger.Error("sentry init failed", zap.Error(err))
			return fmt.Errorf("sentry init: %w", err)
		}
		logger.Info("sentry error reporting enabled")
	}

	return ensureAdmin(ctx, deps.MongoDatabase, appCfg.AdminEmail, appCfg.AdminPassword, logger)
}

// ensureAdmin creates the admin account, or promotes an existing account
// with the same email. It is a no-op when email is blank. A new account
// without a configured password gets a generated one, which is logged once.
func ensureAdmin(ctx context.Context, db *mongo.Database, email, password string, logger *zap.Logger) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}

	generated := false
	if password == "" {
		p, err := auth.GeneratePassword()
		if err != nil {
			return fmt.Errorf("generate admin password: %w", err)
		}
		password = p
		generated = true
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	created, err := userstore.New(db).EnsureAdmin(ctx, email, hash)
	if err != nil {
		logger.Error("ensure admin failed", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("ensure admin: %w", err)
	}

	switch {
	case created && generated:
		logger.Warn("admin account created with generated password",
			zap.String("email", email), zap.String("password", password))
	case created:
		logger.Info("admin account created", zap.String("email", email))
	default:
		logger.Info("admin account ensured", zap.String("email", email))
	}
	return nil
}
