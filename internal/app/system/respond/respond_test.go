package respond_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"go.uber.org/zap"
)

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body respond.MessageBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body.Message
}

func TestError_AppErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", apperr.Validation("Title and summary are required"), http.StatusBadRequest, "Title and summary are required"},
		{"wrapped not found", fmt.Errorf("load: %w", apperr.NotFound("Project not found")), http.StatusNotFound, "Project not found"},
		{"forbidden", apperr.Forbidden("Forbidden"), http.StatusForbidden, "Forbidden"},
		{"conflict", apperr.Conflict("User already exists"), http.StatusBadRequest, "User already exists"},
		{"plain error", errors.New("db exploded"), http.StatusInternalServerError, "Server error"},
		{"internal", apperr.Internal(errors.New("boom")), http.StatusInternalServerError, "Server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respond.Error(rec, httptest.NewRequest("GET", "/api/projects", nil), zap.NewNop(), tt.err)
			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d", rec.Code, tt.status)
			}
			if got := decodeMessage(t, rec); got != tt.msg {
				t.Errorf("message: got %q, want %q", got, tt.msg)
			}
		})
	}
}

func TestJSON_SetsContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.JSON(rec, http.StatusCreated, map[string]int{"n": 1})
	if rec.Code != http.StatusCreated {
		t.Errorf("status: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Comment string `json:"comment"`
	}
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"comment":"looks good"}`))
	if err := respond.DecodeJSON(r, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Comment != "looks good" {
		t.Errorf("got %q", v.Comment)
	}

	r = httptest.NewRequest("POST", "/", strings.NewReader(""))
	if err := respond.DecodeJSON(r, &v); err != nil {
		t.Errorf("empty body should not error: %v", err)
	}

	r = httptest.NewRequest("POST", "/", strings.NewReader("{not json"))
	err := respond.DecodeJSON(r, &v)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
