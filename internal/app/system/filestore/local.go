package filestore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/waffle/pantry/storage"
)

// NewLocal stores attachments under root and links them below urlPrefix,
// which bootstrap mounts as a file server.
func NewLocal(root, urlPrefix string) (*Blob, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("local storage path is empty")
	}
	st, err := storage.NewLocal(storage.LocalConfig{
		BasePath: root,
		BaseURL:  urlPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}
	return NewBlob(BackendLocal, st), nil
}
