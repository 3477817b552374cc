// internal/app/features/projects/create.go
package projects

import (
	"context"
	"net/http"

	"github.com/dalemusser/reviewhub/internal/app/policy/projectpolicy"
	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/filestore"
	"github.com/dalemusser/reviewhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/reviewhub/internal/app/system/inputval"
	"github.com/dalemusser/reviewhub/internal/app/system/normalize"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
	"github.com/dalemusser/reviewhub/internal/app/system/timeouts"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	"go.uber.org/zap"
)

type projectFields struct {
	Title       string `validate:"max=200" label:"Title"`
	Client      string `validate:"max=200" label:"Client"`
	ClientEmail string `validate:"omitempty,email,max=254" label:"Client email"`
}

func validateFields(f *projectForm) error {
	if f.Title == "" || htmlsanitize.StripTags(f.Summary) == "" {
		return apperr.Validation("Title and summary are required")
	}
	f.ClientEmail = normalize.Email(f.ClientEmail)
	res := inputval.Validate(projectFields{Title: f.Title, Client: f.Client, ClientEmail: f.ClientEmail})
	if res.HasErrors() {
		return apperr.Validation(res.First())
	}
	return nil
}

// HandleCreate accepts a new project, as JSON or multipart with an optional
// attachment.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, false)
}

// HandleUpload is the multipart form of create; the attachment is required.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, true)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, requireFile bool) {
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
	if requireFile && f.file == nil {
		respond.Error(w, r, h.Log, apperr.Validation("A file is required"))
		return
	}
	if f.file != nil {
		if err := filestore.Validate(*f.file, h.MaxUploadBytes); err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create project")
	defer cancel()

	submitter := h.resolveSubmitter(r, f.SubmittedBy)
	clientEmail := f.ClientEmail
	if clientEmail == "" {
		if clientEmail, err = h.emailOf(ctx, submitter); err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
	}

	p := models.Project{
		Title:       f.Title,
		Client:      projectpolicy.ClientLabel(f.Client, clientEmail),
		Summary:     f.Summary,
		SubmittedBy: submitter,
		ClientEmail: clientEmail,
	}

	if f.file != nil {
		stored, err := h.storeFile(ctx, *f.file)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		p.File = &stored
	}

	created, err := h.Projects.Create(ctx, p)
	if err != nil {
		h.deleteFileQuietly(r, p.File, p.ID)
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Log.Info("project submitted",
		zap.String("project_id", created.ID.Hex()),
		zap.Bool("has_file", created.File != nil))

	view, err := h.populateOne(ctx, created)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, view)
}

// storeFile uploads an attachment through the configured backend.
func (h *Handler) storeFile(ctx context.Context, u filestore.Upload) (models.UploadedFile, error) {
	if h.Files == nil {
		return models.UploadedFile{}, apperr.Validation("File uploads are not configured")
	}
	stored, err := h.Files.Put(ctx, u)
	if err != nil {
		h.Log.Error("file upload failed",
			zap.String("backend", h.Files.Name()),
			zap.String("filename", u.Filename),
			zap.Error(err))
		return models.UploadedFile{}, err
	}
	return stored, nil
}
