// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging); everything specific to the
// review workflow lives here.
//
// AppConfig is loaded once and passed by value to every lifecycle hook and
// handler constructor. Nothing mutates it after LoadConfig returns.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer tokens
	TokenSecret    string        // HS256 signing secret (at least 32 bytes in production)
	AccessTokenTTL time.Duration // lifetime of login tokens
	ResetTokenTTL  time.Duration // lifetime of password-reset links

	// Browser-facing URLs
	FrontendURL        string   // SPA origin used in email links (e.g., https://reviews.example.com)
	CORSAllowedOrigins []string // origins allowed to call the API

	// File storage configuration
	StorageType      string // Storage backend: "local", "s3" or "cloudinary"
	StorageLocalPath string // Local storage path (e.g., "./uploads/projects")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/files/projects")
	UploadMaxBytes   int64  // attachment size limit

	// S3 configuration (only used if StorageType is "s3")
	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string
	StorageS3PublicURL string // CDN or bucket URL used to build public links

	// Cloudinary configuration (only used if StorageType is "cloudinary")
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string // From email address
	MailFromName string // From display name
	ContactEmail string // inbox for the public contact form

	// Admin bootstrap
	AdminEmail    string // created or promoted to admin on startup
	AdminPassword string // initial password when the admin account is created

	// Error reporting
	SentryDSN string

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Login attempts allowed per client IP per minute
	LoginRateLimit int
}
