package service

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/car-marketplace/internal/repository"
	apperrors "github.com/spec-kit/car-marketplace/pkg/util/errorutil"
)

// Notifier delivers an outbound message. Implementations hand the message
// off and return; delivery failures surface in their own logs.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateInput runs struct tag validation and reports failing fields as
// {field: rule}.
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	details := make(map[string]any, len(verrs))
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
		fields = append(fields, fe.Field())
	}
	return apperrors.NewValidationError("missing or invalid fields: "+strings.Join(fields, ", "), details)
}

// PageQuery is the page/limit pair accepted by list endpoints.
type PageQuery struct {
	Page  int
	Limit int
}

func (q PageQuery) normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	q.Limit = repository.Page{Limit: q.Limit}.Normalize().Limit
	return q
}

func (q PageQuery) repo() repository.Page {
	q = q.normalize()
	return repository.Page{Limit: q.Limit, Offset: (q.Page - 1) * q.Limit}
}

// PageResult is one page of a list plus the numbers needed to render
// pagination.
type PageResult[T any] struct {
	Items []T
	Total int
	Page  int
	Limit int
}

// Pages returns the number of pages.
func (p PageResult[T]) Pages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

func newPageResult[T any](items []T, total int, q PageQuery) *PageResult[T] {
	q = q.normalize()
	if items == nil {
		items = []T{}
	}
	return &PageResult[T]{Items: items, Total: total, Page: q.Page, Limit: q.Limit}
}

// mapRepoErr converts repository sentinels to DomainErrors.
func mapRepoErr(err error, resource string) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", nil)
	case errors.Is(err, repository.ErrInUse):
		return apperrors.NewConflict(resource+" is referenced by other records", nil)
	default:
		return apperrors.NewInternalError(err)
	}
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
