package filestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/reviewhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
)

// Blob stores attachments in a waffle storage backend. Object keys are
// YYYY/MM/uuid8-filename; the backend adds its own prefix.
type Blob struct {
	store storage.Store
	name  string
	now   func() time.Time
}

// NewBlob wraps store. name is reported by Name.
func NewBlob(name string, store storage.Store) *Blob {
	return &Blob{store: store, name: name, now: time.Now}
}

func (b *Blob) Name() string { return b.name }

func (b *Blob) Put(ctx context.Context, u Upload) (models.UploadedFile, error) {
	if u.Body == nil {
		return models.UploadedFile{}, errors.New("empty upload body")
	}
	key := objectKey("", u.Filename, b.now().UTC())
	ct := u.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = ContentTypeFor(u.Filename)
	}

	if err := b.store.Put(ctx, key, u.Body, &storage.PutOptions{ContentType: ct}); err != nil {
		return models.UploadedFile{}, fmt.Errorf("store %s: %w", key, err)
	}

	return models.UploadedFile{
		URL:          b.store.URL(key),
		PublicID:     key,
		OriginalName: u.Filename,
	}, nil
}

func (b *Blob) Delete(ctx context.Context, f models.UploadedFile) error {
	if f.PublicID == "" {
		return nil
	}
	err := b.store.Delete(ctx, f.PublicID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete %s: %w", f.PublicID, err)
	}
	return nil
}
