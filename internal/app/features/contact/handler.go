// internal/app/features/contact/handler.go
package contact

import (
	"net/http"
	"strings"

	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/inputval"
	"github.com/dalemusser/reviewhub/internal/app/system/mailer"
	"github.com/dalemusser/reviewhub/internal/app/system/normalize"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"go.uber.org/zap"
)

// Handler forwards contact form messages to the team inbox.
type Handler struct {
	Log  *zap.Logger
	Mail mailer.Sender
	To   string
}

func NewHandler(mail mailer.Sender, to string, logger *zap.Logger) *Handler {
	return &Handler{
		Log:  logger,
		Mail: mail,
		To:   strings.TrimSpace(to),
	}
}

type contactInput struct {
	Name    string `json:"name" validate:"notblank,max=100" label:"Name"`
	Email   string `json:"email" validate:"required,email,max=254" label:"Email"`
	Message string `json:"message" validate:"notblank,max=5000" label:"Message"`
}

// HandleSubmit mails the message to the configured inbox. A failed send
// fails the request.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var in contactInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in.Name = normalize.Name(in.Name)
	in.Email = normalize.Email(in.Email)
	in.Message = strings.TrimSpace(in.Message)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation(res.First()))
		return
	}
	if h.To == "" {
		h.Log.Warn("contact form submitted but no contact email is configured")
		respond.Message(w, http.StatusServiceUnavailable, "Contact form is not available")
		return
	}

	err := h.Mail.Send(mailer.BuildContactEmail(mailer.ContactData{
		To:      h.To,
		Name:    in.Name,
		Email:   in.Email,
		Message: in.Message,
	}))
	if err != nil {
		h.Log.Error("contact email not sent", zap.String("from", in.Email), zap.Error(err))
		respond.Message(w, http.StatusInternalServerError, "Error sending message. Please try again later.")
		return
	}
	respond.Message(w, http.StatusOK, "Message sent")
}
