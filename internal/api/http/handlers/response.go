package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/car-marketplace/internal/api/dto"
	"github.com/spec-kit/car-marketplace/internal/auth"
	"github.com/spec-kit/car-marketplace/internal/media"
	"github.com/spec-kit/car-marketplace/internal/service"
	apperrors "github.com/spec-kit/car-marketplace/pkg/util/errorutil"
)

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

func respondPage[T any, R any](c *fiber.Ctx, page *service.PageResult[T], mapFn func(*T) R) error {
	items := make([]R, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, mapFn(&page.Items[i]))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    items,
		"pagination": dto.Pagination{
			Total: page.Total,
			Page:  page.Page,
			Pages: page.Pages(),
			Limit: page.Limit,
		},
	})
}

func pageQuery(c *fiber.Ctx) service.PageQuery {
	return service.PageQuery{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", 10)}
}

func bindBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func isAdmin(c *fiber.Ctx) bool {
	principal, ok := auth.PrincipalFromContext(c)
	return ok && principal.IsAdmin()
}

func currentUser(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

// Uploader validates and stores multipart files for a request.
type Uploader struct {
	store    media.Store
	maxFiles int
	maxBytes int64
}

// NewUploader constructs an uploader.
func NewUploader(store media.Store, maxFiles int, maxBytes int64) *Uploader {
	return &Uploader{store: store, maxFiles: maxFiles, maxBytes: maxBytes}
}

// Store returns the backing media store.
func (u *Uploader) Store() media.Store {
	return u.store
}

// Save stores the files sent under field. Non-multipart requests carry no
// files. Every file is checked before any is written.
func (u *Uploader) Save(c *fiber.Ctx, field, folder string) ([]string, error) {
	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationError("invalid multipart form", nil)
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	if u.maxFiles > 0 && len(files) > u.maxFiles {
		return nil, apperrors.NewValidationError("too many files", map[string]any{field: "max", "max": u.maxFiles})
	}
	if err := u.check(files, field); err != nil {
		return nil, err
	}
	refs, err := media.SaveAll(c.UserContext(), u.store, folder, files)
	if err != nil {
		if uploadRejected(err) {
			return nil, apperrors.NewValidationError(err.Error(), map[string]any{field: "invalid"})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return refs, nil
}

// SaveOne stores at most one file sent under field.
func (u *Uploader) SaveOne(c *fiber.Ctx, field, folder string) (*string, error) {
	refs, err := u.Save(c, field, folder)
	if err != nil || len(refs) == 0 {
		return nil, err
	}
	if len(refs) > 1 {
		media.DeleteAll(c.UserContext(), u.store, refs, nil)
		return nil, apperrors.NewValidationError("only one file allowed", map[string]any{field: "max"})
	}
	return &refs[0], nil
}

func (u *Uploader) check(files []*multipart.FileHeader, field string) error {
	for _, fh := range files {
		if err := media.CheckFile(fh, u.maxBytes); err != nil {
			return apperrors.NewValidationError(err.Error(), map[string]any{field: "invalid"})
		}
	}
	return nil
}

func uploadRejected(err error) bool {
	return errors.Is(err, media.ErrUnsupportedType) || errors.Is(err, media.ErrTooLarge)
}
