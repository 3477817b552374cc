// internal/app/features/projects/list.go
package projects

import (
	"net/http"
	"strings"

	"github.com/dalemusser/reviewhub/internal/app/policy/projectpolicy"
	projectstore "github.com/dalemusser/reviewhub/internal/app/store/projects"
	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/auth"
	"github.com/dalemusser/reviewhub/internal/app/system/authz"
	"github.com/dalemusser/reviewhub/internal/app/system/normalize"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"github.com/dalemusser/reviewhub/internal/app/system/timeouts"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// filterID reads an id-valued query parameter. "me" means the caller.
func filterID(r *http.Request, name string) (*primitive.ObjectID, error) {
	raw := normalize.QueryParam(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	if strings.EqualFold(raw, "me") {
		me := authz.CallerID(r)
		if me == nil {
			return nil, apperr.Validation("Unable to resolve current user for " + name + "=me")
		}
		return me, nil
	}
	id, err := parseID(raw, "Invalid "+name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ServeList returns projects newest first, filtered by assignedTo,
// submittedBy and status. Users only ever see their own submissions.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	var f projectstore.Filter
	var err error
	if f.AssignedTo, err = filterID(r, "assignedTo"); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if f.SubmittedBy, err = filterID(r, "submittedBy"); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if s := normalize.Status(r.URL.Query().Get("status")); s != "" {
		if !models.IsValidStatus(s) {
			respond.Error(w, r, h.Log, apperr.Validation("Invalid status"))
			return
		}
		f.Status = s
	}
	if authz.IsUser(r) {
		f.SubmittedBy = authz.CallerID(r)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list projects")
	defer cancel()

	list, err := h.Projects.List(ctx, f)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	views, err := h.populate(ctx, list)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, views)
}

// ServeProject returns one populated project.
func (h *Handler) ServeProject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get project")
	defer cancel()

	p, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, storeErr(err))
		return
	}
	who, _ := auth.CurrentPrincipal(r)
	if !projectpolicy.CanView(*p, who) {
		respond.Error(w, r, h.Log, apperr.Forbidden("Access denied"))
		return
	}
	view, err := h.populateOne(ctx, *p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, view)
}
