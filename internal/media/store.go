// Package media persists uploaded images and removes them again when the
// record that referenced them is rejected or deleted.
package media

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/car-marketplace/internal/config"
)

var (
	// ErrUnsupportedType is returned for files that are not images.
	ErrUnsupportedType = errors.New("only jpeg, jpg, png, webp and gif images are allowed")
	// ErrTooLarge is returned when a file exceeds the configured size.
	ErrTooLarge = errors.New("file exceeds the maximum allowed size")
	// ErrInvalidRef is returned for references that escape the store.
	ErrInvalidRef = errors.New("invalid media reference")
)

// Store persists uploads and resolves their public URLs. A reference is
// the opaque string returned by Save and kept on the owning record.
type Store interface {
	Save(ctx context.Context, folder string, file *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
}

var allowedExtensions = map[string]struct{}{
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".webp": {},
	".gif":  {},
}

// CheckFile validates extension and size before anything is written.
func CheckFile(file *multipart.FileHeader, maxBytes int64) error {
	if file == nil {
		return ErrUnsupportedType
	}
	if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(file.Filename))]; !ok {
		return fmt.Errorf("%s: %w", file.Filename, ErrUnsupportedType)
	}
	if maxBytes > 0 && file.Size > maxBytes {
		return fmt.Errorf("%s: %w", file.Filename, ErrTooLarge)
	}
	return nil
}

// SaveAll stores every file or none: when one save fails, the files
// already written are deleted before the error is returned.
func SaveAll(ctx context.Context, store Store, folder string, files []*multipart.FileHeader) ([]string, error) {
	refs := make([]string, 0, len(files))
	for _, file := range files {
		ref, err := store.Save(ctx, folder, file)
		if err != nil {
			DeleteAll(ctx, store, refs, nil)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// cleanupTimeout bounds DeleteAll once it is detached from the caller.
const cleanupTimeout = 30 * time.Second

// DeleteAll removes refs, logging failures instead of returning them. It
// runs detached from ctx cancellation so a timed-out request still cleans
// up the files it wrote.
func DeleteAll(ctx context.Context, store Store, refs []string, logger *zap.Logger) {
	if store == nil || len(refs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	for _, ref := range refs {
		if err := store.Delete(ctx, ref); err != nil && logger != nil {
			logger.Warn("failed to delete media", zap.String("ref", ref), zap.Error(err))
		}
	}
}

// URLs maps refs to public URLs.
func URLs(store Store, refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if store == nil {
			out = append(out, ref)
			continue
		}
		out = append(out, store.URL(ref))
	}
	return out
}

// New selects the backend named by cfg.Backend.
func New(cfg config.MediaConfig, baseURL string) (Store, error) {
	switch cfg.Backend {
	case "cloudinary":
		return NewCloudinaryStore(cfg)
	default:
		return NewLocalStore(cfg.UploadDir, baseURL, cfg.MaxFileBytes)
	}
}
