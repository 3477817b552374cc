// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"

	"github.com/dalemusser/reviewhub/internal/app/system/auditlog"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/app/system/filestore"
	"github.com/dalemusser/reviewhub/internal/app/system/mailer"
	"github.com/dalemusser/reviewhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minProdSecretLen is the shortest token secret accepted outside dev.
const minProdSecretLen = 32

// appConfigKeys defines the configuration keys for ReviewHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, token_secret, etc.
//   - Environment variables: REVIEWHUB_MONGO_URI, REVIEWHUB_TOKEN_SECRET, etc.
//   - Command-line flags: --mongo_uri, --token_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "review_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},

	// Tokens
	{Name: "token_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "JWT signing secret (must be strong in production)"},
	{Name: "access_token_ttl", Default: "10h", Desc: "Lifetime of login tokens (e.g., 10h)"},
	{Name: "reset_token_ttl", Default: "72h", Desc: "Lifetime of password reset links (e.g., 72h)"},

	// Frontend
	{Name: "frontend_url", Default: "http://localhost:3000", Desc: "Frontend base URL for email links"},
	{Name: "cors_allowed_origins", Default: "http://localhost:3000", Desc: "Comma-separated origins allowed by CORS"},

	// File storage configuration
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local', 's3' or 'cloudinary'"},
	{Name: "storage_local_path", Default: "./uploads/projects", Desc: "Local storage path for uploaded files"},
	{Name: "storage_local_url", Default: "/files/projects", Desc: "URL prefix for serving local files"},
	{Name: "upload_max_bytes", Default: int(filestore.DefaultMaxBytes), Desc: "Maximum attachment size in bytes"},

	// S3 configuration
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "projects/", Desc: "S3 key prefix"},
	{Name: "storage_s3_public_url", Default: "", Desc: "Public base URL for S3 objects (bucket or CDN)"},

	// Cloudinary configuration
	{Name: "cloudinary_cloud_name", Default: "", Desc: "Cloudinary cloud name"},
	{Name: "cloudinary_api_key", Default: "", Desc: "Cloudinary API key"},
	{Name: "cloudinary_api_secret", Default: "", Desc: "Cloudinary API secret"},
	{Name: "cloudinary_folder", Default: "projects", Desc: "Cloudinary folder for attachments"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@reviewhub.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Review Team", Desc: "From display name"},
	{Name: "contact_email", Default: "", Desc: "Inbox that receives contact form messages"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the admin user (promotes/creates on startup)"},
	{Name: "admin_password", Default: "", Desc: "Initial password for a newly created admin"},

	// Error reporting
	{Name: "sentry_dsn", Default: "", Desc: "Sentry DSN (blank disables error reporting)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Rate limiting
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts allowed per client IP per minute"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, REVIEWHUB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "REVIEWHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		// Tokens
		TokenSecret:    appValues.String("token_secret"),
		AccessTokenTTL: appValues.Duration("access_token_ttl", auth.DefaultAccessTTL),
		ResetTokenTTL:  appValues.Duration("reset_token_ttl", auth.DefaultResetTTL),

		// Frontend
		FrontendURL:        strings.TrimRight(appValues.String("frontend_url"), "/"),
		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),

		// File storage
		StorageType:      strings.ToLower(strings.TrimSpace(appValues.String("storage_type"))),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageLocalURL:  appValues.String("storage_local_url"),
		UploadMaxBytes:   int64(appValues.Int("upload_max_bytes")),

		// S3
		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageS3PublicURL: appValues.String("storage_s3_public_url"),

		// Cloudinary
		CloudinaryCloudName: appValues.String("cloudinary_cloud_name"),
		CloudinaryAPIKey:    appValues.String("cloudinary_api_key"),
		CloudinaryAPISecret: appValues.String("cloudinary_api_secret"),
		CloudinaryFolder:    appValues.String("cloudinary_folder"),

		// Email/SMTP
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),
		ContactEmail: appValues.String("contact_email"),

		// Admin
		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),

		SentryDSN: appValues.String("sentry_dsn"),

		// Audit logging
		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		LoginRateLimit: appValues.Int("login_rate_limit"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// It rejects a malformed MongoDB URI before any connection is attempted, a
// weak token secret outside dev, and storage settings that name a backend
// without the values it needs.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(coreCfg.Env, appCfg)
}

func validateApp(env string, appCfg AppConfig) error {
	if strings.TrimSpace(appCfg.TokenSecret) == "" {
		return fmt.Errorf("token_secret is required")
	}
	if env == "prod" && len(appCfg.TokenSecret) < minProdSecretLen {
		return fmt.Errorf("token_secret must be at least %d characters in production", minProdSecretLen)
	}
	if appCfg.UploadMaxBytes < 0 {
		return fmt.Errorf("upload_max_bytes must not be negative")
	}
	if appCfg.AdminPassword != "" && len(appCfg.AdminPassword) < auth.MinPasswordLength {
		return fmt.Errorf("admin_password must be at least %d characters", auth.MinPasswordLength)
	}

	switch appCfg.StorageType {
	case "", filestore.BackendLocal:
		if strings.TrimSpace(appCfg.StorageLocalPath) == "" {
			return fmt.Errorf("storage_type local requires storage_local_path")
		}
	case filestore.BackendS3:
		if appCfg.StorageS3Region == "" || appCfg.StorageS3Bucket == "" {
			return fmt.Errorf("storage_type s3 requires storage_s3_region and storage_s3_bucket")
		}
	case filestore.BackendCloudinary:
		if appCfg.CloudinaryCloudName == "" || appCfg.CloudinaryAPIKey == "" || appCfg.CloudinaryAPISecret == "" {
			return fmt.Errorf("storage_type cloudinary requires cloudinary_cloud_name, cloudinary_api_key and cloudinary_api_secret")
		}
	default:
		return fmt.Errorf("unknown storage_type %q (want local, s3 or cloudinary)", appCfg.StorageType)
	}
	return nil
}

// splitList parses a comma-separated config value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c AppConfig) storageConfig() filestore.Config {
	return filestore.Config{
		Type:      c.StorageType,
		LocalPath: c.StorageLocalPath,
		LocalURL:  c.StorageLocalURL,
		S3: filestore.S3Config{
			Region:    c.StorageS3Region,
			Bucket:    c.StorageS3Bucket,
			Prefix:    c.StorageS3Prefix,
			PublicURL: c.StorageS3PublicURL,
		},
		Cloudinary: filestore.CloudinaryConfig{
			CloudName: c.CloudinaryCloudName,
			APIKey:    c.CloudinaryAPIKey,
			APISecret: c.CloudinaryAPISecret,
			Folder:    c.CloudinaryFolder,
		},
	}
}

func (c AppConfig) auditConfig() auditlog.Config {
	return auditlog.Config{Auth: c.AuditLogAuth, Admin: c.AuditLogAdmin}
}

func (c AppConfig) mailConfig() mailer.Config {
	return mailer.Config{
		Host:     c.MailSMTPHost,
		Port:     c.MailSMTPPort,
		Username: c.MailSMTPUser,
		Password: c.MailSMTPPass,
		From:     c.MailFrom,
		FromName: c.MailFromName,
		Timeout:  timeouts.Long(),
	}
}
