package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrStatusConflict is returned when a conditional status update finds
	// the row in a different state than expected.
	ErrStatusConflict = errors.New("status precondition failed")
	// ErrDuplicate is returned on unique constraint violations.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInUse is returned when a delete is blocked by referencing rows.
	ErrInUse = errors.New("record is referenced")
)

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

// Normalize applies default bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicate
		case "23503":
			return ErrInUse
		case "22P02":
			// malformed uuid literal; no row can match it
			return ErrNotFound
		}
	}
	return err
}
