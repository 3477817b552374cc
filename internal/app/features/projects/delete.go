// internal/app/features/projects/delete.go
package projects

import (
	"net/http"

	"github.com/dalemusser/reviewhub/internal/app/policy/projectpolicy"
	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"github.com/dalemusser/reviewhub/internal/app/system/timeouts"
)

// HandleDelete removes a project, then its attachment.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete project")
	defer cancel()

	p, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	who, _ := auth.CurrentPrincipal(r)
	if !projectpolicy.CanModify(*p, who) {
		respond.Error(w, r, h.Log, apperr.Forbidden("Access denied"))
		return
	}

	n, err := h.Projects.Delete(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if n == 0 {
		respond.Error(w, r, h.Log, apperr.NotFound("Project not found"))
		return
	}
	h.deleteFileQuietly(r, p.File, id)
	h.AuditLog.ProjectDeleted(ctx, r, id)
	respond.Message(w, http.StatusOK, "Project deleted")
}
