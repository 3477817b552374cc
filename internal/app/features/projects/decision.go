// internal/app/features/projects/decision.go
package projects

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/reviewhub/internal/app/policy/projectpolicy"
	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/mailer"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"github.com/dalemusser/reviewhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

var errNoRecipient = errors.New("No recipient email available")

// projectWithEmail is a populated project plus the outcome of the email
// the action sent.
type projectWithEmail struct {
	projectView
	emailResult
}

type decisionInput struct {
	Decision string `json:"decision"`
}

// HandleDecision accepts or rejects a project and emails the submitter.
// The email outcome is reported; it never undoes the decision.
func (h *Handler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in decisionInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	status, err := projectpolicy.DecisionStatus(in.Decision)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "decide project")
	defer cancel()

	p, err := h.Projects.Decide(ctx, id, status)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	view, err := h.populateOne(ctx, *p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	sendErr := errNoRecipient
	if to := projectpolicy.RecipientEmail(p.ClientEmail, view.submitterEmail()); to != "" {
		sendErr = h.Mail.Send(mailer.BuildDecisionEmail(mailer.DecisionData{
			To:         to,
			Title:      p.Title,
			Summary:    p.Summary,
			Status:     status,
			ProjectURL: h.projectURL(p.ID),
		}))
	}
	if sendErr != nil {
		h.Log.Warn("decision email not sent",
			zap.String("project_id", id.Hex()), zap.Error(sendErr))
	}
	result := newEmailResult(sendErr)

	h.AuditLog.ProjectDecided(ctx, r, id, status, result.EmailSent)
	respond.JSON(w, http.StatusOK, projectWithEmail{projectView: view, emailResult: result})
}

type notifyInput struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// HandleNotify emails a free-form message about a project to any address.
func (h *Handler) HandleNotify(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in notifyInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	to := strings.TrimSpace(in.Email)
	if !strings.Contains(to, "@") {
		respond.Error(w, r, h.Log, apperr.Validation("Valid email is required"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "notify project")
	defer cancel()

	p, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	view, err := h.populateOne(ctx, *p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	sendErr := h.Mail.Send(mailer.BuildNoticeEmail(mailer.NoticeData{
		To:         to,
		Title:      p.Title,
		Summary:    p.Summary,
		Message:    strings.TrimSpace(in.Message),
		ProjectURL: h.projectURL(p.ID),
	}))
	if sendErr != nil {
		h.Log.Warn("project notice not sent",
			zap.String("project_id", id.Hex()), zap.Error(sendErr))
	}
	result := newEmailResult(sendErr)

	h.AuditLog.ProjectNotified(ctx, r, id, to, result.EmailSent)
	respond.JSON(w, http.StatusOK, projectWithEmail{projectView: view, emailResult: result})
}
