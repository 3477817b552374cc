// internal/app/features/projects/update.go
package projects

import (
	"net/http"

	"github.com/dalemusser/reviewhub/internal/app/policy/projectpolicy"
	projectstore "github.com/dalemusser/reviewhub/internal/app/store/projects"
	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/app/system/filestore"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"github.com/dalemusser/reviewhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleUpdate replaces a project's editable fields. A new attachment
// replaces the old one, which is then removed from storage.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	f, err := h.readProjectForm(w, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	defer f.close()

	if err := validateFields(f); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	status, err := projectpolicy.EditableStatus(f.Status)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if f.file != nil {
		if err := filestore.Validate(*f.file, h.MaxUploadBytes); err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "update project")
	defer cancel()

	cur, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	who, _ := auth.CurrentPrincipal(r)
	if !projectpolicy.CanModify(*cur, who) {
		respond.Error(w, r, h.Log, apperr.Forbidden("Access denied"))
		return
	}

	// Omitted client fields keep their stored values.
	if f.ClientEmail == "" {
		f.ClientEmail = cur.ClientEmail
	}
	if f.Client == "" {
		f.Client = cur.Client
	}
	upd := projectstore.Update{
		Title:       f.Title,
		Client:      projectpolicy.ClientLabel(f.Client, f.ClientEmail),
		Summary:     f.Summary,
		ClientEmail: f.ClientEmail,
	}
	if status != "" && status != cur.Status {
		if cur.IsFinal() {
			respond.Error(w, r, h.Log, apperr.Validation(projectpolicy.MsgFinalized))
			return
		}
		upd.Status = &status
	}
	if f.file != nil {
		stored, err := h.storeFile(ctx, *f.file)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		upd.File = &stored
	}

	p, err := h.Projects.Update(ctx, id, upd)
	if err != nil {
		h.deleteFileQuietly(r, upd.File, id)
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	if upd.File != nil {
		h.deleteFileQuietly(r, cur.File, id)
	}
	h.Log.Info("project updated",
		zap.String("project_id", id.Hex()),
		zap.Bool("file_replaced", upd.File != nil))

	view, err := h.populateOne(ctx, *p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, view)
}
