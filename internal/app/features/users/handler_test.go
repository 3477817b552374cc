package users_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/reviewhub/internal/app/features/users"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/app/system/mailer"
	"github.com/dalemusser/reviewhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type env struct {
	h      *users.Handler
	router chi.Router
	fix    *testutil.Fixtures
	mail   *mailer.Recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	mail := &mailer.Recorder{}
	h := users.NewHandler(db, testutil.NewIssuer(t), mail, nil, nil, "https://reviews.example.com/", zap.NewNop())
	return &env{h: h, router: users.Routes(h), fix: testutil.NewFixtures(t, db), mail: mail}
}

func (e *env) serve(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterThenLogin(t *testing.T) {
	e := newEnv(t)

	rec := e.serve(testutil.NewJSONRequest(t, "POST", "/", map[string]string{
		"email":    "a@x.com",
		"password": "secret1",
		"role":     "admin",
	}))
	rec.AssertStatus(t, http.StatusCreated)
	var reg struct {
		Error       bool   `json:"error"`
		AccessToken string `json:"accessToken"`
	}
	rec.DecodeJSON(t, &reg)
	if reg.Error || reg.AccessToken == "" {
		t.Fatalf("unexpected register body %s", rec.Body.String())
	}

	rec = e.serve(testutil.NewJSONRequest(t, "POST", "/login", map[string]string{
		"email":    "a@x.com",
		"password": "secret1",
	}))
	rec.AssertStatus(t, http.StatusOK)
	var login struct {
		AccessToken string `json:"accessToken"`
		UserInfo    struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"userInfo"`
	}
	rec.DecodeJSON(t, &login)
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("login response must not carry the password hash")
	}

	p, err := e.h.Issuer.ParseAccess(login.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if p.Email != "a@x.com" || p.Role != auth.RoleUser {
		t.Errorf("unexpected claims %+v", p)
	}
	if login.UserInfo.Role != auth.RoleUser {
		t.Errorf("registration must force role user, got %q", login.UserInfo.Role)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fix.CreateUser(ctx, "Ada", "L", "dup@x.com")

	rec := e.serve(testutil.NewJSONRequest(t, "POST", "/", map[string]string{
		"email":    "DUP@x.com",
		"password": "secret1",
	}))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertMessage(t, "User already exists")
}

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name string
		body map[string]string
		msg  string
	}{
		{"short password", map[string]string{"email": "a@x.com", "password": "abc"}, "Password must be at least 6 characters."},
		{"bad email", map[string]string{"email": "nope", "password": "secret1"}, "A valid email address is required."},
		{"missing email", map[string]string{"password": "secret1"}, "Email is required."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.serve(testutil.NewJSONRequest(t, "POST", "/", tt.body))
			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertMessage(t, tt.msg)
		})
	}
}

func TestLogin_Failures(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fix.CreateUser(ctx, "Ada", "L", "ada@x.com")

	tests := []struct {
		name   string
		body   map[string]string
		status int
		msg    string
	}{
		{"missing password", map[string]string{"email": "ada@x.com"}, http.StatusBadRequest, "Please fill all fields"},
		{"unknown email", map[string]string{"email": "ghost@x.com", "password": "secret1"}, http.StatusNotFound, "User does not exist"},
		{"wrong password", map[string]string{"email": "ada@x.com", "password": "wrong-pass"}, http.StatusUnauthorized, "Invalid password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.serve(testutil.NewJSONRequest(t, "POST", "/login", tt.body))
			rec.AssertStatus(t, tt.status)
			rec.AssertMessage(t, tt.msg)
		})
	}
}

func TestForgotPassword_UnknownEmailIsGeneric(t *testing.T) {
	e := newEnv(t)
	rec := e.serve(testutil.NewJSONRequest(t, "POST", "/forgot-password", map[string]string{"email": "ghost@x.com"}))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertMessage(t, "If the email exists, a reset link will be sent.")
	if len(e.mail.Sent()) != 0 {
		t.Error("no email should be sent for an unknown address")
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fix.CreateUser(ctx, "Ada", "L", "ada@x.com")

	rec := e.serve(testutil.NewJSONRequest(t, "POST", "/forgot-password", map[string]string{"email": "ada@x.com"}))
	rec.AssertStatus(t, http.StatusOK)

	msg, ok := e.mail.Last()
	if !ok {
		t.Fatal("expected reset email")
	}
	prefix := "https://reviews.example.com/reset-password/" + u.ID.Hex() + "/"
	idx := strings.Index(msg.TextBody, prefix)
	if idx < 0 {
		t.Fatalf("reset link missing from %q", msg.TextBody)
	}
	token := strings.Fields(msg.TextBody[idx+len(prefix):])[0]

	// token issued for another id
	other := primitive.NewObjectID().Hex()
	rec = e.serve(testutil.NewJSONRequest(t, "POST", "/reset-password/"+other+"/"+token, map[string]string{"password": "newpass1"}))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertMessage(t, "Invalid token or user ID mismatch.")

	rec = e.serve(testutil.NewJSONRequest(t, "POST", "/reset-password/"+u.ID.Hex()+"/"+token, map[string]string{"password": "newpass1"}))
	rec.AssertStatus(t, http.StatusOK)

	rec = e.serve(testutil.NewJSONRequest(t, "POST", "/login", map[string]string{"email": "ada@x.com", "password": "newpass1"}))
	rec.AssertStatus(t, http.StatusOK)
}

func TestResetPassword_RejectsAccessToken(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fix.CreateUser(ctx, "Ada", "L", "ada@x.com")

	access, err := e.h.Issuer.IssueAccess(u.ID, u.Email, u.Role)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec := e.serve(testutil.NewJSONRequest(t, "POST", "/reset-password/"+u.ID.Hex()+"/"+access, map[string]string{"password": "newpass1"}))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertMessage(t, "Invalid token.")
}

func TestForgotPassword_MailFailure(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fix.CreateUser(ctx, "Ada", "L", "ada@x.com")
	e.mail.Err = errors.New("smtp down")

	rec := e.serve(testutil.NewJSONRequest(t, "POST", "/forgot-password", map[string]string{"email": "ada@x.com"}))
	rec.AssertStatus(t, http.StatusInternalServerError)
}

func TestList_AdminOnly(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fix.CreateUser(ctx, "Ada", "L", "ada@x.com")

	rec := e.serve(testutil.NewAuthenticatedRequest("GET", "/", testutil.SubmitterUser(u.ID)))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = e.serve(testutil.NewAuthenticatedRequest("GET", "/", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	var list []map[string]any
	rec.DecodeJSON(t, &list)
	if len(list) != 1 {
		t.Errorf("expected 1 user, got %d", len(list))
	}
}

func TestGetUser_SelfOrAdmin(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fix.CreateUser(ctx, "Ada", "L", "ada@x.com")
	other := e.fix.CreateUser(ctx, "Bob", "M", "bob@x.com")

	rec := e.serve(testutil.NewAuthenticatedRequest("GET", "/"+u.ID.Hex(), testutil.SubmitterUser(u.ID)))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "ada@x.com")

	rec = e.serve(testutil.NewAuthenticatedRequest("GET", "/"+other.ID.Hex(), testutil.SubmitterUser(u.ID)))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = e.serve(testutil.NewAuthenticatedRequest("GET", "/"+primitive.NewObjectID().Hex(), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestUpdate_RoleRequiresAdmin(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fix.CreateUser(ctx, "Ada", "L", "ada@x.com")

	req := testutil.WithUser(testutil.NewJSONRequest(t, "PUT", "/"+u.ID.Hex(), map[string]string{
		"organization": "Lab",
		"role":         "admin",
	}), testutil.SubmitterUser(u.ID))
	rec := e.serve(req)
	rec.AssertStatus(t, http.StatusForbidden)

	// unchanged role is accepted
	req = testutil.WithUser(testutil.NewJSONRequest(t, "PUT", "/"+u.ID.Hex(), map[string]string{
		"organization": "Lab",
		"role":         "user",
	}), testutil.SubmitterUser(u.ID))
	rec = e.serve(req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"organization":"Lab"`)

	req = testutil.WithUser(testutil.NewJSONRequest(t, "PUT", "/"+u.ID.Hex(), map[string]string{
		"role": "reviewer",
	}), testutil.AdminUser())
	rec = e.serve(req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"role":"reviewer"`)
}

func TestUpdate_DuplicateEmail(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fix.CreateUser(ctx, "Ada", "L", "ada@x.com")
	e.fix.CreateUser(ctx, "Bob", "M", "bob@x.com")

	req := testutil.WithUser(testutil.NewJSONRequest(t, "PUT", "/"+u.ID.Hex(), map[string]string{
		"email": "bob@x.com",
	}), testutil.SubmitterUser(u.ID))
	rec := e.serve(req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertMessage(t, "User already exists")
}

func TestDelete(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fix.CreateUser(ctx, "Ada", "L", "ada@x.com")

	rec := e.serve(testutil.NewAuthenticatedRequest("DELETE", "/"+u.ID.Hex(), testutil.SubmitterUser(u.ID)))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertMessage(t, "User deleted")

	rec = e.serve(testutil.NewAuthenticatedRequest("DELETE", "/"+u.ID.Hex(), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fix.CreateUser(ctx, "Ada", "L", "ada@x.com")
	caller := testutil.SubmitterUser(u.ID)
	path := "/" + u.ID.Hex() + "/change-password"

	tests := []struct {
		name   string
		body   map[string]string
		status int
		msg    string
	}{
		{"missing fields", map[string]string{"oldPassword": testutil.DefaultPassword}, http.StatusBadRequest, "All fields are required"},
		{"mismatch", map[string]string{"oldPassword": testutil.DefaultPassword, "newPassword": "newpass1", "confirmPassword": "newpass2"}, http.StatusBadRequest, "Please confirm correctly!"},
		{"wrong old", map[string]string{"oldPassword": "nope-nope", "newPassword": "newpass1", "confirmPassword": "newpass1"}, http.StatusBadRequest, "Incorrect old password"},
		{"success", map[string]string{"oldPassword": testutil.DefaultPassword, "newPassword": "newpass1", "confirmPassword": "newpass1"}, http.StatusOK, "Password updated successfully"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.serve(testutil.WithUser(testutil.NewJSONRequest(t, "POST", path, tt.body), caller))
			rec.AssertStatus(t, tt.status)
			rec.AssertMessage(t, tt.msg)
		})
	}
}
