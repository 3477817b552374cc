// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"

	contactfeature "github.com/dalemusser/reviewhub/internal/app/features/contact"
	healthfeature "github.com/dalemusser/reviewhub/internal/app/features/health"
	projectsfeature "github.com/dalemusser/reviewhub/internal/app/features/projects"
	reviewersfeature "github.com/dalemusser/reviewhub/internal/app/features/reviewers"
	usersfeature "github.com/dalemusser/reviewhub/internal/app/features/users"
	"github.com/dalemusser/reviewhub/internal/app/store/audit"
	"github.com/dalemusser/reviewhub/internal/app/system/auditlog"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/app/system/filestore"
	"github.com/dalemusser/reviewhub/internal/app/system/mailer"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// Every request passes through CORS, Sentry (when enabled) and principal
// loading; the feature routers then decide which endpoints need a signed-in
// caller or a specific role.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	issuer, err := auth.NewIssuer(appCfg.TokenSecret, appCfg.AccessTokenTTL, appCfg.ResetTokenTTL)
	if err != nil {
		logger.Error("token issuer init failed", zap.Error(err))
		return nil, err
	}

	mail := mailer.New(appCfg.mailConfig(), logger)
	if !mail.Configured() {
		logger.Warn("SMTP not configured; notification emails will be reported as not sent")
	}

	auditLog := auditlog.New(audit.New(deps.MongoDatabase), logger, appCfg.auditConfig())

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if appCfg.SentryDSN != "" {
		r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}

	// Global auth middleware: a valid bearer token puts the principal in
	// context for auth.CurrentPrincipal(r). Invalid tokens are ignored here
	// and rejected by the route guards that need a principal.
	r.Use(auth.LoadPrincipal(issuer, logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Message(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Message(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Files.Name(), logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Locally stored attachments are served by the app itself.
	if deps.Files.Name() == filestore.BackendLocal {
		prefix := "/" + strings.Trim(appCfg.StorageLocalURL, "/")
		r.Handle(prefix+"/*", fileserver.Handler(prefix, appCfg.StorageLocalPath))
	}

	db := deps.MongoDatabase

	usersHandler := usersfeature.NewHandler(db, issuer, mail, deps.LoginLimiter, auditLog, appCfg.FrontendURL, logger)
	r.Mount("/api/users", usersfeature.Routes(usersHandler))

	reviewersHandler := reviewersfeature.NewHandler(db, issuer, mail, deps.LoginLimiter, auditLog, appCfg.FrontendURL, logger)
	r.Mount("/api/reviewers", reviewersfeature.Routes(reviewersHandler))

	projectsHandler := projectsfeature.NewHandler(db, issuer, mail, deps.Files, appCfg.UploadMaxBytes, auditLog, appCfg.FrontendURL, logger)
	r.Mount("/api/projects", projectsfeature.Routes(projectsHandler))

	contactHandler := contactfeature.NewHandler(mail, appCfg.ContactEmail, logger)
	r.Mount("/api/contact", contactfeature.Routes(contactHandler))

	return r, nil
}
