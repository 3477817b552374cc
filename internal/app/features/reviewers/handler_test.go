package reviewers_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/reviewhub/internal/app/features/reviewers"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/app/system/mailer"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	"github.com/dalemusser/reviewhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type env struct {
	h      *reviewers.Handler
	router chi.Router
	fix    *testutil.Fixtures
	mail   *mailer.Recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	mail := &mailer.Recorder{}
	h := reviewers.NewHandler(db, testutil.NewIssuer(t), mail, nil, nil, "https://reviews.example.com", zap.NewNop())
	return &env{h: h, router: reviewers.Routes(h), fix: testutil.NewFixtures(t, db), mail: mail}
}

func (e *env) serve(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// mailedPassword pulls the generated password out of the welcome email.
func mailedPassword(t *testing.T, msg mailer.Email) string {
	t.Helper()
	for _, line := range strings.Split(msg.TextBody, "\n") {
		if pw, ok := strings.CutPrefix(line, "Password: "); ok {
			return strings.TrimSpace(pw)
		}
	}
	t.Fatalf("no password in email body %q", msg.TextBody)
	return ""
}

func TestCreateThenLogin(t *testing.T) {
	e := newEnv(t)

	req := testutil.WithUser(testutil.NewJSONRequest(t, "POST", "/", map[string]string{
		"firstName": "R",
		"lastName":  "T",
		"email":     "r@x.com",
	}), testutil.AdminUser())
	rec := e.serve(req)
	rec.AssertStatus(t, http.StatusCreated)
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response must not include a password field: %s", rec.Body.String())
	}

	var created struct {
		Reviewer   models.Reviewer `json:"reviewer"`
		EmailSent  bool            `json:"emailSent"`
		EmailError *string         `json:"emailError"`
	}
	rec.DecodeJSON(t, &created)
	if !created.EmailSent || created.EmailError != nil {
		t.Errorf("expected email sent, got sent=%v err=%v", created.EmailSent, created.EmailError)
	}
	if created.Reviewer.Role != auth.RoleReviewer {
		t.Errorf("role: got %q", created.Reviewer.Role)
	}

	msg, ok := e.mail.Last()
	if !ok || msg.To != "r@x.com" {
		t.Fatalf("expected welcome email to r@x.com, got %+v", msg)
	}
	if !strings.Contains(msg.TextBody, "https://reviews.example.com/login") {
		t.Error("expected login link in welcome email")
	}
	password := mailedPassword(t, msg)
	if len(password) != 8 {
		t.Errorf("expected 8-character password, got %q", password)
	}

	rec = e.serve(testutil.NewJSONRequest(t, "POST", "/login", map[string]string{
		"email":    "r@x.com",
		"password": password,
	}))
	rec.AssertStatus(t, http.StatusOK)
	var login struct {
		AccessToken string `json:"accessToken"`
	}
	rec.DecodeJSON(t, &login)
	p, err := e.h.Issuer.ParseAccess(login.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if p.Role != auth.RoleReviewer || p.ID != created.Reviewer.ID {
		t.Errorf("unexpected principal %+v", p)
	}
}

func TestCreate_MailFailureStillCreates(t *testing.T) {
	e := newEnv(t)
	e.mail.Err = errors.New("smtp down")

	req := testutil.WithUser(testutil.NewJSONRequest(t, "POST", "/", map[string]string{
		"firstName": "R", "lastName": "T", "email": "r@x.com",
	}), testutil.AdminUser())
	rec := e.serve(req)
	rec.AssertStatus(t, http.StatusCreated)

	var created struct {
		EmailSent  bool    `json:"emailSent"`
		EmailError *string `json:"emailError"`
	}
	rec.DecodeJSON(t, &created)
	if created.EmailSent || created.EmailError == nil || *created.EmailError != "smtp down" {
		t.Errorf("unexpected email outcome sent=%v err=%v", created.EmailSent, created.EmailError)
	}
}

func TestCreate_ValidationAndDuplicate(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fix.CreateReviewer(ctx, "Old", "Hand", "taken@x.com")

	tests := []struct {
		name string
		body map[string]string
		msg  string
	}{
		{"missing last name", map[string]string{"firstName": "R", "email": "r@x.com"}, "Last name is required."},
		{"duplicate", map[string]string{"firstName": "R", "lastName": "T", "email": "taken@x.com"}, "A reviewer with this email already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.serve(testutil.WithUser(testutil.NewJSONRequest(t, "POST", "/", tt.body), testutil.AdminUser()))
			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertMessage(t, tt.msg)
		})
	}
}

func TestCreate_RequiresAdmin(t *testing.T) {
	e := newEnv(t)
	body := map[string]string{"firstName": "R", "lastName": "T", "email": "r@x.com"}

	rec := e.serve(testutil.NewJSONRequest(t, "POST", "/", body))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = e.serve(testutil.WithUser(testutil.NewJSONRequest(t, "POST", "/", body), testutil.ReviewerUser(primitive.NewObjectID())))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestLogin_Failures(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fix.CreateReviewer(ctx, "R", "T", "r@x.com")

	rec := e.serve(testutil.NewJSONRequest(t, "POST", "/login", map[string]string{"email": "r@x.com"}))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = e.serve(testutil.NewJSONRequest(t, "POST", "/login", map[string]string{"email": "ghost@x.com", "password": "whatever"}))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertMessage(t, "Reviewer not found")

	rec = e.serve(testutil.NewJSONRequest(t, "POST", "/login", map[string]string{"email": "r@x.com", "password": "wrong-pass"}))
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertMessage(t, "Invalid credentials")
}

func TestListAndGet(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	rv := e.fix.CreateReviewer(ctx, "R", "T", "r@x.com")
	caller := testutil.SubmitterUser(primitive.NewObjectID())

	rec := e.serve(testutil.NewRequest("GET", "/"))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = e.serve(testutil.NewAuthenticatedRequest("GET", "/", caller))
	rec.AssertStatus(t, http.StatusOK)
	var list []models.Reviewer
	rec.DecodeJSON(t, &list)
	if len(list) != 1 || list[0].ID != rv.ID {
		t.Errorf("unexpected list %+v", list)
	}

	rec = e.serve(testutil.NewAuthenticatedRequest("GET", "/"+rv.ID.Hex(), caller))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "r@x.com")

	rec = e.serve(testutil.NewAuthenticatedRequest("GET", "/"+primitive.NewObjectID().Hex(), caller))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestUpdate_SelfOrAdmin(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	rv := e.fix.CreateReviewer(ctx, "R", "T", "r@x.com")

	body := map[string]string{"title": "Chair"}
	rec := e.serve(testutil.WithUser(testutil.NewJSONRequest(t, "PUT", "/"+rv.ID.Hex(), body), testutil.ReviewerUser(primitive.NewObjectID())))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = e.serve(testutil.WithUser(testutil.NewJSONRequest(t, "PUT", "/"+rv.ID.Hex(), body), testutil.ReviewerUser(rv.ID)))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"title":"Chair"`)
}

func TestDelete_UnassignsFromProjects(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	rv := e.fix.CreateReviewer(ctx, "R", "T", "r@x.com")
	p := e.fix.CreateProjectWith(ctx, models.Project{Title: "Solar", AssignedReviewers: []primitive.ObjectID{rv.ID}})

	rec := e.serve(testutil.NewAuthenticatedRequest("DELETE", "/"+rv.ID.Hex(), testutil.ReviewerUser(rv.ID)))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = e.serve(testutil.NewAuthenticatedRequest("DELETE", "/"+rv.ID.Hex(), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertMessage(t, "Reviewer deleted")

	var got models.Project
	if err := e.fix.DB().Collection("projects").FindOne(ctx, bson.M{"_id": p.ID}).Decode(&got); err != nil {
		t.Fatalf("load project: %v", err)
	}
	if len(got.AssignedReviewers) != 0 {
		t.Errorf("expected reviewer to be unassigned, got %v", got.AssignedReviewers)
	}

	rec = e.serve(testutil.NewAuthenticatedRequest("DELETE", "/"+rv.ID.Hex(), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	rv := e.fix.CreateReviewer(ctx, "R", "T", "r@x.com")
	path := "/" + rv.ID.Hex() + "/change-password"

	rec := e.serve(testutil.WithUser(testutil.NewJSONRequest(t, "POST", path, map[string]string{
		"oldPassword": testutil.DefaultPassword, "newPassword": "newpass1", "confirmPassword": "other11",
	}), testutil.ReviewerUser(rv.ID)))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertMessage(t, "New passwords do not match")

	rec = e.serve(testutil.WithUser(testutil.NewJSONRequest(t, "POST", path, map[string]string{
		"oldPassword": testutil.DefaultPassword, "newPassword": "newpass1", "confirmPassword": "newpass1",
	}), testutil.ReviewerUser(rv.ID)))
	rec.AssertStatus(t, http.StatusOK)

	rec = e.serve(testutil.NewJSONRequest(t, "POST", "/login", map[string]string{"email": "r@x.com", "password": "newpass1"}))
	rec.AssertStatus(t, http.StatusOK)
}

func TestSetPassword(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	rv := e.fix.CreateReviewer(ctx, "R", "T", "r@x.com")
	path := "/" + rv.ID.Hex() + "/set-password"

	rec := e.serve(testutil.WithUser(testutil.NewJSONRequest(t, "POST", path, map[string]any{"password": "abc"}), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertMessage(t, "Password must be at least 6 characters")

	rec = e.serve(testutil.WithUser(testutil.NewJSONRequest(t, "POST", path, map[string]any{"password": "fresh12"}), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"emailSent":false`)
	if len(e.mail.Sent()) != 0 {
		t.Error("no email expected without emailNotify")
	}

	rec = e.serve(testutil.WithUser(testutil.NewJSONRequest(t, "POST", path, map[string]any{"password": "fresh34", "emailNotify": true}), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"emailSent":true`)
	msg, ok := e.mail.Last()
	if !ok || !strings.Contains(msg.TextBody, "fresh34") {
		t.Errorf("expected password email, got %+v", msg)
	}

	rec = e.serve(testutil.NewJSONRequest(t, "POST", "/login", map[string]string{"email": "r@x.com", "password": "fresh34"}))
	rec.AssertStatus(t, http.StatusOK)

	rec = e.serve(testutil.WithUser(testutil.NewJSONRequest(t, "POST", "/"+primitive.NewObjectID().Hex()+"/set-password", map[string]any{"password": "fresh56"}), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusNotFound)
}
