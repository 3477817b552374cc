package filestore

import (
	"context"
	"fmt"
	"strings"
)

// Config selects and configures a backend.
type Config struct {
	Type       string
	LocalPath  string
	LocalURL   string
	S3         S3Config
	Cloudinary CloudinaryConfig
}

// New builds the backend named by cfg.Type.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", BackendLocal:
		return NewLocal(cfg.LocalPath, cfg.LocalURL)
	case BackendS3:
		return NewS3(ctx, cfg.S3)
	case BackendCloudinary:
		return NewCloudinary(cfg.Cloudinary)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
