// internal/app/features/projects/form.go
package projects

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/app/system/filestore"
	"github.com/dalemusser/reviewhub/internal/app/system/respond"
)

// projectForm is the create/update body. It arrives either as JSON or as
// multipart/form-data with an optional "file" part.
type projectForm struct {
	Title       string `json:"title"`
	Client      string `json:"client"`
	Summary     string `json:"summary"`
	ClientEmail string `json:"clientEmail"`
	SubmittedBy string `json:"submittedBy"`
	Status      string `json:"status"`

	file       *filestore.Upload
	fileCloser io.Closer
}

// close releases the multipart file, if any.
func (f *projectForm) close() {
	if f.fileCloser != nil {
		_ = f.fileCloser.Close()
	}
}

// multipart overhead allowed on top of the attachment limit
const formSlack = 1 << 20

// readProjectForm decodes r into a projectForm. Callers must defer close.
func (h *Handler) readProjectForm(w http.ResponseWriter, r *http.Request) (*projectForm, error) {
	f := &projectForm{}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := respond.DecodeJSON(r, f); err != nil {
			return nil, err
		}
		f.trim()
		return f, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+formSlack)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, apperr.Validation(filestore.TooLargeMessage(h.MaxUploadBytes))
		}
		return nil, apperr.Validation("Invalid form data")
	}
	f.Title = r.FormValue("title")
	f.Client = r.FormValue("client")
	f.Summary = r.FormValue("summary")
	f.ClientEmail = r.FormValue("clientEmail")
	f.SubmittedBy = r.FormValue("submittedBy")
	f.Status = r.FormValue("status")
	f.trim()

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return f, nil
	case err != nil:
		return nil, apperr.Validation("Invalid file upload")
	}
	f.file = uploadFrom(file, header)
	f.fileCloser = file
	return f, nil
}

func (f *projectForm) trim() {
	f.Title = strings.TrimSpace(f.Title)
	f.Client = strings.TrimSpace(f.Client)
	f.Summary = strings.TrimSpace(f.Summary)
	f.ClientEmail = strings.TrimSpace(f.ClientEmail)
	f.SubmittedBy = strings.TrimSpace(f.SubmittedBy)
	f.Status = strings.TrimSpace(f.Status)
}

func uploadFrom(file multipart.File, header *multipart.FileHeader) *filestore.Upload {
	ct := header.Header.Get("Content-Type")
	if ct == "" {
		ct = filestore.ContentTypeFor(header.Filename)
	}
	return &filestore.Upload{
		Filename:    header.Filename,
		ContentType: ct,
		Size:        header.Size,
		Body:        file,
	}
}

