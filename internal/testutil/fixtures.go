package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultPassword is the plaintext password every fixture account gets.
const DefaultPassword = "secret123"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) hash(plain string) string {
	f.t.Helper()
	h, err := auth.HashPassword(plain)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	return h
}

// CreateUser inserts a submitter account with DefaultPassword.
func (f *Fixtures) CreateUser(ctx context.Context, first, last, email string) models.User {
	f.t.Helper()
	return f.insertUser(ctx, first, last, email, models.RoleUser)
}

// CreateAdmin inserts an admin account with DefaultPassword.
func (f *Fixtures) CreateAdmin(ctx context.Context, email string) models.User {
	f.t.Helper()
	return f.insertUser(ctx, "Test", "Admin", email, models.RoleAdmin)
}

func (f *Fixtures) insertUser(ctx context.Context, first, last, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FirstName:    first,
		LastName:     last,
		NameCI:       text.Fold(first + " " + last),
		Email:        email,
		PasswordHash: f.hash(DefaultPassword),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateReviewer inserts a reviewer with DefaultPassword.
func (f *Fixtures) CreateReviewer(ctx context.Context, first, last, email string) models.Reviewer {
	f.t.Helper()

	now := time.Now().UTC()
	rv := models.Reviewer{
		ID:           primitive.NewObjectID(),
		FirstName:    first,
		LastName:     last,
		NameCI:       text.Fold(first + " " + last),
		Email:        email,
		PasswordHash: f.hash(DefaultPassword),
		Title:        "Senior Reviewer",
		Role:         models.RoleReviewer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("reviewers").InsertOne(ctx, rv); err != nil {
		f.t.Fatalf("failed to create test reviewer: %v", err)
	}
	return rv
}

// CreateProject inserts a submitted project. submittedBy may be nil.
func (f *Fixtures) CreateProject(ctx context.Context, title string, submittedBy *primitive.ObjectID) models.Project {
	f.t.Helper()
	return f.CreateProjectWith(ctx, models.Project{Title: title, SubmittedBy: submittedBy})
}

// CreateProjectWith inserts p after filling in any zero-valued required
// fields (id, summary, client, status, timestamps, empty slices).
func (f *Fixtures) CreateProjectWith(ctx context.Context, p models.Project) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Title == "" {
		p.Title = "Test Project"
	}
	if p.Summary == "" {
		p.Summary = "<p>Test summary</p>"
	}
	if p.Client == "" {
		p.Client = models.DefaultClient
	}
	if p.Status == "" {
		p.Status = models.StatusSubmitted
	}
	if p.SubmittedAt.IsZero() {
		p.SubmittedAt = now
	}
	if p.AssignedReviewers == nil {
		p.AssignedReviewers = []primitive.ObjectID{}
	}
	if p.Reviews == nil {
		p.Reviews = []models.Review{}
	}
	p.UpdatedAt = now

	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	return p
}
