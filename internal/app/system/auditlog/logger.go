// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/reviewhub/internal/app/store/audit"
	"github.com/dalemusser/reviewhub/internal/app/system/authz"
	"github.com/dalemusser/reviewhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	DestAll = "all" // MongoDB + zap
	DestDB  = "db"  // MongoDB only
	DestLog = "log" // zap only
	DestOff = "off" // disabled
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logins and password events.
	Auth string
	// Admin controls reviewer management and project workflow actions.
	Admin string
}

// Logger writes audit events to MongoDB and/or zap depending on Config.
// The actor of every event is the principal on the request, if any.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.SubjectID != nil {
		fields = append(fields, zap.String("subject_id", event.SubjectID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()), zap.String("actor_role", event.ActorRole))
	}
	if event.ProjectID != nil {
		fields = append(fields, zap.String("project_id", event.ProjectID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so handlers and tests can omit auditing.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}
	if setting == "" {
		setting = DestAll
	}
	if setting == DestOff {
		return
	}

	if setting == DestAll || setting == DestLog {
		l.logToZap(event)
	}
	if setting == DestAll || setting == DestDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// base fills the request context and actor fields.
func base(r *http.Request, category, eventType string, success bool) audit.Event {
	e := audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
	if role, id, ok := authz.UserCtx(r); ok {
		e.ActorID = &id
		e.ActorRole = role
	}
	return e
}

func oid(id primitive.ObjectID) *primitive.ObjectID { return &id }

/*─────────────────────────────────────────────────────────────────────────────*
| Authentication events                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// LoginSuccess logs a successful login for a user or reviewer account.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, id primitive.ObjectID, role, email string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	e.SubjectID = oid(id)
	e.Details = map[string]string{"role": role, "email": email}
	l.Log(ctx, e)
}

// LoginFailedUserNotFound logs a login for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, role, email string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound, false)
	e.FailureReason = "account not found"
	e.Details = map[string]string{"role": role, "attempted_email": email}
	l.Log(ctx, e)
}

// LoginFailedWrongPassword logs a login with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, id primitive.ObjectID, role, email string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword, false)
	e.SubjectID = oid(id)
	e.FailureReason = "wrong password"
	e.Details = map[string]string{"role": role, "email": email}
	l.Log(ctx, e)
}

// LoginFailedRateLimit logs a login rejected by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, role, email string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginFailedRateLimit, false)
	e.FailureReason = "rate limited"
	e.Details = map[string]string{"role": role, "attempted_email": email}
	l.Log(ctx, e)
}

// PasswordChanged logs a change-password by the account owner or an admin.
func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, subjectID primitive.ObjectID, role string) {
	e := base(r, audit.CategoryAuth, audit.EventPasswordChanged, true)
	e.SubjectID = oid(subjectID)
	e.Details = map[string]string{"role": role}
	l.Log(ctx, e)
}

// PasswordResetRequested logs a forgot-password email for a known user.
func (l *Logger) PasswordResetRequested(ctx context.Context, r *http.Request, userID primitive.ObjectID, emailSent bool) {
	e := base(r, audit.CategoryAuth, audit.EventPasswordResetRequested, emailSent)
	e.SubjectID = oid(userID)
	if !emailSent {
		e.FailureReason = "email not sent"
	}
	l.Log(ctx, e)
}

// PasswordReset logs a completed token-based reset.
func (l *Logger) PasswordReset(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := base(r, audit.CategoryAuth, audit.EventPasswordReset, true)
	e.SubjectID = oid(userID)
	l.Log(ctx, e)
}

// PasswordSetByAdmin logs an admin overriding a reviewer password.
func (l *Logger) PasswordSetByAdmin(ctx context.Context, r *http.Request, reviewerID primitive.ObjectID, emailSent bool) {
	e := base(r, audit.CategoryAuth, audit.EventPasswordSetByAdmin, true)
	e.SubjectID = oid(reviewerID)
	e.Details = map[string]string{"email_sent": strconv.FormatBool(emailSent)}
	l.Log(ctx, e)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Account administration                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// UserUpdated logs a profile update on a user account.
func (l *Logger) UserUpdated(ctx context.Context, r *http.Request, userID primitive.ObjectID, roleChanged bool) {
	e := base(r, audit.CategoryAdmin, audit.EventUserUpdated, true)
	e.SubjectID = oid(userID)
	e.Details = map[string]string{"role_changed": strconv.FormatBool(roleChanged)}
	l.Log(ctx, e)
}

// UserDeleted logs a user account deletion.
func (l *Logger) UserDeleted(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := base(r, audit.CategoryAdmin, audit.EventUserDeleted, true)
	e.SubjectID = oid(userID)
	l.Log(ctx, e)
}

// ReviewerCreated logs an admin creating a reviewer.
func (l *Logger) ReviewerCreated(ctx context.Context, r *http.Request, reviewerID primitive.ObjectID, email string, emailSent bool) {
	e := base(r, audit.CategoryAdmin, audit.EventReviewerCreated, true)
	e.SubjectID = oid(reviewerID)
	e.Details = map[string]string{"email": email, "email_sent": strconv.FormatBool(emailSent)}
	l.Log(ctx, e)
}

// ReviewerUpdated logs a reviewer profile update.
func (l *Logger) ReviewerUpdated(ctx context.Context, r *http.Request, reviewerID primitive.ObjectID) {
	e := base(r, audit.CategoryAdmin, audit.EventReviewerUpdated, true)
	e.SubjectID = oid(reviewerID)
	l.Log(ctx, e)
}

// ReviewerDeleted logs a reviewer deletion and how many projects lost the assignment.
func (l *Logger) ReviewerDeleted(ctx context.Context, r *http.Request, reviewerID primitive.ObjectID, unassigned int64) {
	e := base(r, audit.CategoryAdmin, audit.EventReviewerDeleted, true)
	e.SubjectID = oid(reviewerID)
	e.Details = map[string]string{"projects_unassigned": strconv.FormatInt(unassigned, 10)}
	l.Log(ctx, e)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Project workflow                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// ReviewerAssigned logs an assignment.
func (l *Logger) ReviewerAssigned(ctx context.Context, r *http.Request, projectID, reviewerID primitive.ObjectID) {
	e := base(r, audit.CategoryAdmin, audit.EventReviewerAssigned, true)
	e.ProjectID = oid(projectID)
	e.SubjectID = oid(reviewerID)
	l.Log(ctx, e)
}

// ReviewerUnassigned logs an unassignment.
func (l *Logger) ReviewerUnassigned(ctx context.Context, r *http.Request, projectID, reviewerID primitive.ObjectID) {
	e := base(r, audit.CategoryAdmin, audit.EventReviewerUnassigned, true)
	e.ProjectID = oid(projectID)
	e.SubjectID = oid(reviewerID)
	l.Log(ctx, e)
}

// ProjectDecided logs an accept/reject decision.
func (l *Logger) ProjectDecided(ctx context.Context, r *http.Request, projectID primitive.ObjectID, status string, emailSent bool) {
	e := base(r, audit.CategoryAdmin, audit.EventProjectDecided, true)
	e.ProjectID = oid(projectID)
	e.Details = map[string]string{"status": status, "email_sent": strconv.FormatBool(emailSent)}
	l.Log(ctx, e)
}

// ProjectNotified logs an admin message sent about a project.
func (l *Logger) ProjectNotified(ctx context.Context, r *http.Request, projectID primitive.ObjectID, to string, emailSent bool) {
	e := base(r, audit.CategoryAdmin, audit.EventProjectNotified, emailSent)
	e.ProjectID = oid(projectID)
	e.Details = map[string]string{"to": to}
	if !emailSent {
		e.FailureReason = "email not sent"
	}
	l.Log(ctx, e)
}

// ProjectSubmitterSet logs an admin attaching a project to a user.
func (l *Logger) ProjectSubmitterSet(ctx context.Context, r *http.Request, projectID, userID primitive.ObjectID) {
	e := base(r, audit.CategoryAdmin, audit.EventProjectSubmitterSet, true)
	e.ProjectID = oid(projectID)
	e.SubjectID = oid(userID)
	l.Log(ctx, e)
}

// ProjectDeleted logs a project deletion.
func (l *Logger) ProjectDeleted(ctx context.Context, r *http.Request, projectID primitive.ObjectID) {
	e := base(r, audit.CategoryAdmin, audit.EventProjectDeleted, true)
	e.ProjectID = oid(projectID)
	l.Log(ctx, e)
}
