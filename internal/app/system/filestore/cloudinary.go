package filestore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/dalemusser/reviewhub/internal/domain/models"
)

// CloudinaryConfig configures the Cloudinary backend.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Documents are uploaded as raw resources.
const cloudinaryResourceType = "raw"

// Cloudinary stores attachments as raw Cloudinary assets.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
	now    func() time.Time
}

// NewCloudinary builds a client from explicit credentials.
func NewCloudinary(cfg CloudinaryConfig) (*Cloudinary, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary storage requires cloud name, api key and api secret")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &Cloudinary{cld: cld, folder: strings.Trim(cfg.Folder, "/"), now: time.Now}, nil
}

func (c *Cloudinary) Name() string { return BackendCloudinary }

func (c *Cloudinary) Put(ctx context.Context, u Upload) (models.UploadedFile, error) {
	// Folder is passed separately; the public id is the bare object name.
	publicID := path.Base(objectKey("", u.Filename, c.now().UTC()))
	overwrite := false

	res, err := c.cld.Upload.Upload(ctx, u.Body, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       c.folder,
		ResourceType: cloudinaryResourceType,
		Overwrite:    &overwrite,
	})
	if err != nil {
		return models.UploadedFile{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return models.UploadedFile{}, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}

	return models.UploadedFile{
		URL:          res.SecureURL,
		PublicID:     res.PublicID,
		OriginalName: u.Filename,
	}, nil
}

func (c *Cloudinary) Delete(ctx context.Context, f models.UploadedFile) error {
	if f.PublicID == "" {
		return nil
	}
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     f.PublicID,
		ResourceType: cloudinaryResourceType,
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", f.PublicID, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %s: %s", f.PublicID, res.Error.Message)
	}
	return nil
}
