package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func withPrincipal(r *http.Request, role string) (*http.Request, primitive.ObjectID) {
	id := primitive.NewObjectID()
	return auth.WithPrincipal(r, &auth.Principal{ID: id, Email: role + "@test.com", Role: role}), id
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body.Message
}

func TestLoadPrincipal_ValidToken(t *testing.T) {
	iss := newIssuer(t)
	id := primitive.NewObjectID()
	token, err := iss.IssueAccess(id, "ada@example.com", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var got *auth.Principal
	h := auth.LoadPrincipal(iss, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentPrincipal(r)
	}))

	req := httptest.NewRequest("GET", "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected principal in context")
	}
	if got.ID != id || got.Email != "ada@example.com" || got.Role != "user" {
		t.Errorf("unexpected principal %+v", got)
	}
}

func TestLoadPrincipal_IgnoresBadTokens(t *testing.T) {
	iss := newIssuer(t)
	resetToken, _ := iss.IssueReset(primitive.NewObjectID())
	other, _ := auth.NewIssuer("another-secret-another-secret-123", 0, 0)
	foreign, _ := other.IssueAccess(primitive.NewObjectID(), "x@example.com", "admin")

	headers := []string{
		"",
		"Bearer",
		"Basic dXNlcjpwYXNz",
		"Bearer not-a-jwt",
		"Bearer " + resetToken,
		"Bearer " + foreign,
	}
	for _, hdr := range headers {
		var found bool
		h := auth.LoadPrincipal(iss, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, found = auth.CurrentPrincipal(r)
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest("GET", "/", nil)
		if hdr != "" {
			req.Header.Set("Authorization", hdr)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if found {
			t.Errorf("header %q: expected no principal", hdr)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("header %q: request should continue, got %d", hdr, rec.Code)
		}
	}
}

func TestRequireSignedIn(t *testing.T) {
	h := auth.RequireSignedIn(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if msg := messageOf(t, rec); msg != "Authentication required" {
		t.Errorf("unexpected message %q", msg)
	}

	req, _ := withPrincipal(httptest.NewRequest("GET", "/", nil), "user")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	h := auth.RequireRole(auth.RoleReviewer)(okHandler())

	tests := []struct {
		role string
		want int
	}{
		{"", http.StatusUnauthorized},
		{"user", http.StatusForbidden},
		{"reviewer", http.StatusOK},
		{"admin", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("POST", "/", nil)
		if tt.role != "" {
			req, _ = withPrincipal(req, tt.role)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("role %q: got %d, want %d", tt.role, rec.Code, tt.want)
		}
		if tt.want == http.StatusForbidden {
			if msg := messageOf(t, rec); msg != "Forbidden" {
				t.Errorf("unexpected message %q", msg)
			}
		}
	}
}

func TestRequireSelfOrAdmin(t *testing.T) {
	r := chi.NewRouter()
	r.With(auth.RequireSelfOrAdmin("id")).Get("/users/{id}", okHandler().ServeHTTP)

	tests := []struct {
		name string
		role string
		path func(own primitive.ObjectID) string
		want int
	}{
		{"anonymous", "", func(primitive.ObjectID) string { return "/users/" + primitive.NewObjectID().Hex() }, http.StatusUnauthorized},
		{"self", "user", func(own primitive.ObjectID) string { return "/users/" + own.Hex() }, http.StatusOK},
		{"other user", "user", func(primitive.ObjectID) string { return "/users/" + primitive.NewObjectID().Hex() }, http.StatusForbidden},
		{"admin", "admin", func(primitive.ObjectID) string { return "/users/" + primitive.NewObjectID().Hex() }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := httptest.NewRequest("GET", "/", nil)
			var own primitive.ObjectID
			if tt.role != "" {
				base, own = withPrincipal(base, tt.role)
			}
			req := httptest.NewRequest("GET", tt.path(own), nil).WithContext(base.Context())
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]struct {
		token string
		ok    bool
	}{
		"Bearer abc":   {"abc", true},
		"bearer abc":   {"abc", true},
		"Bearer   abc": {"abc", true},
		"Bearer":       {"", false},
		"Token abc":    {"", false},
		"":             {"", false},
	}
	for hdr, want := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if hdr != "" {
			req.Header.Set("Authorization", hdr)
		}
		got, ok := auth.BearerToken(req)
		if got != want.token || ok != want.ok {
			t.Errorf("%q: got (%q, %v), want (%q, %v)", hdr, got, ok, want.token, want.ok)
		}
	}
}
