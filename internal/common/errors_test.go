package common

import (
	"errors"
	"testing"
)

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewAppError("STORAGE", "write export", cause)

	if !errors.Is(err, cause) {
		t.Error("AppError must unwrap to its cause")
	}
	want := "STORAGE: write export: disk full"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestValidationErrorf(t *testing.T) {
	err := ValidationErrorf("condition name %q is already in use", "invoices")
	if !errors.Is(err, ErrValidation) {
		t.Error("must match ErrValidation")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("must not match unrelated sentinels")
	}
}

func TestWrapErrorNil(t *testing.T) {
	if WrapError(nil, "context") != nil {
		t.Error("wrapping nil must stay nil")
	}
}
