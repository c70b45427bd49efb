package media

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
)

// LocalStore writes uploads below a directory served at /uploads.
type LocalStore struct {
	root     string
	baseURL  string
	maxBytes int64
}

// NewLocalStore creates the upload directory if needed.
func NewLocalStore(root, baseURL string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		root:     root,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
	}, nil
}

// Save copies the upload to <root>/<folder>/<ulid><ext>.
func (s *LocalStore) Save(ctx context.Context, folder string, file *multipart.FileHeader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := CheckFile(file, s.maxBytes); err != nil {
		return "", err
	}

	ref := path.Join(folder, ulid.Make().String()+strings.ToLower(filepath.Ext(file.Filename)))
	dst, err := s.resolve(ref)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return "", err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return ref, nil
}

// Delete removes the file; a missing file is not an error.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	dst, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URL returns the public address of ref.
func (s *LocalStore) URL(ref string) string {
	return s.baseURL + "/uploads/" + ref
}

func (s *LocalStore) resolve(ref string) (string, error) {
	clean := path.Clean("/" + ref)
	if ref == "" || clean == "/" || clean[1:] != ref {
		return "", ErrInvalidRef
	}
	return filepath.Join(s.root, filepath.FromSlash(ref)), nil
}
