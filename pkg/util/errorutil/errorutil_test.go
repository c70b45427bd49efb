package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToDomainError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"validation", NewValidationError("bad", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		{"unknown reference", NewUnknownReference("brand", nil), "UNKNOWN_REFERENCE", http.StatusBadRequest},
		{"not found", NewNotFound("sell request", nil), "NOT_FOUND", http.StatusNotFound},
		{"conflict", NewConflict("already finalized", nil), "CONFLICT", http.StatusConflict},
		{"forbidden", NewForbidden("nope"), "FORBIDDEN", http.StatusForbidden},
		{"wrapped", fmt.Errorf("outer: %w", NewConflict("inner", nil)), "CONFLICT", http.StatusConflict},
		{"plain", errors.New("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			de := ToDomainError(tc.err)
			if de.Code != tc.code || de.HTTPStatus != tc.status {
				t.Fatalf("got %s/%d, want %s/%d", de.Code, de.HTTPStatus, tc.code, tc.status)
			}
		})
	}
}

func TestInternalErrorKeepsCause(t *testing.T) {
	cause := errors.New("tx aborted")
	err := NewInternalError(cause)
	if !errors.Is(err, cause) {
		t.Fatal("internal error should unwrap to its cause")
	}
	if !IsCode(err, "INTERNAL_ERROR") {
		t.Fatal("IsCode should match INTERNAL_ERROR")
	}
}
