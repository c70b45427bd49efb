package media

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/oklog/ulid/v2"

	"github.com/spec-kit/car-marketplace/internal/config"
)

// CloudinaryStore keeps uploads in a Cloudinary folder. References are
// Cloudinary public ids.
type CloudinaryStore struct {
	cld      *cloudinary.Cloudinary
	folder   string
	maxBytes int64
}

// NewCloudinaryStore builds a client from explicit credentials.
func NewCloudinaryStore(cfg config.MediaConfig) (*CloudinaryStore, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, errors.New("cloudinary credentials are not configured")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return &CloudinaryStore{cld: cld, folder: cfg.CloudinaryFolder, maxBytes: cfg.MaxFileBytes}, nil
}

// Save uploads the file under <folder>/<sub>/<ulid>.
func (s *CloudinaryStore) Save(ctx context.Context, folder string, file *multipart.FileHeader) (string, error) {
	if err := CheckFile(file, s.maxBytes); err != nil {
		return "", err
	}
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	resp, err := s.cld.Upload.Upload(ctx, src, uploader.UploadParams{
		PublicID: ulid.Make().String(),
		Folder:   path.Join(s.folder, folder),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return resp.PublicID, nil
}

// Delete destroys the asset.
func (s *CloudinaryStore) Delete(ctx context.Context, ref string) error {
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: ref})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", resp.Error.Message)
	}
	return nil
}

// URL returns the delivery URL for ref, or "" when it cannot be built.
func (s *CloudinaryStore) URL(ref string) string {
	img, err := s.cld.Image(ref)
	if err != nil {
		return ""
	}
	deliveryURL, err := img.String()
	if err != nil {
		return ""
	}
	return deliveryURL
}
