package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  *apperr.Error
		want int
	}{
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.Conflict("User already exists"), http.StatusBadRequest},
		{apperr.NotFound("missing"), http.StatusNotFound},
		{apperr.Unauthorized("who"), http.StatusUnauthorized},
		{apperr.Forbidden("no"), http.StatusForbidden},
		{apperr.Internal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.err.Status(); got != tt.want {
			t.Errorf("%q: Status() = %d, want %d", tt.err.Message, got, tt.want)
		}
	}
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperr.Internal(cause)
	if err.Message != "Server error" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be unwrappable")
	}
}

func TestAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("decide: %w", apperr.Validation("Project is already finalized"))
	ae, ok := apperr.As(wrapped)
	if !ok {
		t.Fatal("expected As to find *Error")
	}
	if ae.Message != "Project is already finalized" {
		t.Errorf("unexpected message %q", ae.Message)
	}
	if !apperr.Is(wrapped, apperr.KindValidation) {
		t.Error("expected Is to match validation kind")
	}
	if apperr.Is(errors.New("plain"), apperr.KindValidation) {
		t.Error("plain error should not match")
	}
}
