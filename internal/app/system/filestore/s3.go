package filestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/waffle/pantry/storage"
)

// S3Config configures the S3 backend. PublicURL, when set, replaces the
// virtual-hosted bucket URL (e.g. a CloudFront distribution).
type S3Config struct {
	Region    string
	Bucket    string
	Prefix    string
	PublicURL string
}

// NewS3 loads AWS credentials from the default chain (env, shared config,
// instance role).
func NewS3(ctx context.Context, cfg S3Config) (*Blob, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, errors.New("s3 storage requires region and bucket")
	}
	st, err := storage.NewS3(ctx, storage.S3Config{
		Bucket:  cfg.Bucket,
		Region:  cfg.Region,
		Prefix:  cfg.Prefix,
		BaseURL: strings.TrimRight(cfg.PublicURL, "/"),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 storage: %w", err)
	}
	return NewBlob(BackendS3, st), nil
}
