// Package filestore keeps project attachments. One Store interface fronts the
// local disk, S3 and Cloudinary backends; each Put yields the
// models.UploadedFile recorded on the project.
package filestore

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalemusser/reviewhub/internal/app/system/apperr"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	"github.com/google/uuid"
)

// DefaultMaxBytes caps attachment size when no limit is configured.
const DefaultMaxBytes int64 = 5 * 1024 * 1024

// Backend names accepted by New.
const (
	BackendLocal      = "local"
	BackendS3         = "s3"
	BackendCloudinary = "cloudinary"
)

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Store persists attachments.
type Store interface {
	// Put stores u and describes where it landed.
	Put(ctx context.Context, u Upload) (models.UploadedFile, error)
	// Delete removes a previously stored file. Missing files are not an error.
	Delete(ctx context.Context, f models.UploadedFile) error
	// Name is the backend name, for logs and /health.
	Name() string
}

var allowedTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Validate enforces the attachment rules: PDF, DOC or DOCX, at most maxBytes.
func Validate(u Upload, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	ext := strings.ToLower(filepath.Ext(u.Filename))
	want, ok := allowedTypes[ext]
	if !ok {
		return apperr.Validation("Only PDF, DOC, DOCX files are allowed")
	}
	ct := strings.ToLower(strings.TrimSpace(u.ContentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct != "" && ct != "application/octet-stream" && ct != want {
		return apperr.Validation("Only PDF, DOC, DOCX files are allowed")
	}
	if u.Size > maxBytes {
		return apperr.Validation(TooLargeMessage(maxBytes))
	}
	return nil
}

// TooLargeMessage is the client message for an attachment over maxBytes.
func TooLargeMessage(maxBytes int64) string {
	return "File too large (max " + formatSize(maxBytes) + ")"
}

// formatSize renders n as bytes, KB or MB with at most one decimal.
func formatSize(n int64) string {
	const kib, mib = 1024, 1024 * 1024
	switch {
	case n < kib:
		return fmt.Sprintf("%d bytes", n)
	case n < mib:
		return trimDecimal(float64(n)/kib) + " KB"
	default:
		return trimDecimal(float64(n)/mib) + " MB"
	}
}

func trimDecimal(v float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.1f", v), ".0")
}

// ContentTypeFor returns the canonical MIME type for an allowed filename.
func ContentTypeFor(filename string) string {
	if ct, ok := allowedTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// objectKey builds prefix/YYYY/MM/uuid8-filename.
func objectKey(prefix, filename string, now time.Time) string {
	name := fmt.Sprintf("%s-%s", uuid.New().String()[:8], sanitizeFilename(filename))
	dateDir := fmt.Sprintf("%04d/%02d", now.Year(), now.Month())
	return path.Join(strings.Trim(prefix, "/"), dateDir, name)
}

// sanitizeFilename keeps [A-Za-z0-9._-], collapses runs of dots, replaces
// the rest with '_', and truncates to 100 bytes while preserving the
// extension.
func sanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if filename == "." || filename == "/" {
		filename = ""
	}

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_':
			result = append(result, c)
		case c == '.':
			// ".." is never a valid storage key segment
			if len(result) > 0 && result[len(result)-1] == '.' {
				continue
			}
			result = append(result, c)
		case c == ' ':
			result = append(result, '-')
		default:
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			head := strings.TrimRight(string(result[:100-len(ext)]), ".")
			result = append([]byte(head), ext...)
		} else {
			result = result[:100]
		}
	}
	return string(result)
}
