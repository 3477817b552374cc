// Package respond writes JSON responses and maps handler errors to status
// codes with a {"message": ...} body.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// MessageBody is the error and acknowledgement shape used across the API.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageBody{Message: msg})
}

// Error maps err to a response. *apperr.Error values are written with their
// own status and message; anything else is logged, reported to Sentry and
// answered with 500 "Server error".
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	if ae, ok := apperr.As(err); ok && ae.Kind != apperr.KindInternal {
		Message(w, ae.Status(), ae.Message)
		return
	}

	if log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	capture(r, err)
	Message(w, http.StatusInternalServerError, "Server error")
}

func capture(r *http.Request, err error) {
	hub := sentry.GetHubFromContext(r.Context())
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}
	hub.CaptureException(err)
}

// DecodeJSON reads a JSON body into v. An empty body leaves v untouched.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Validation("Invalid JSON body")
	}
	return nil
}
