package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Sentinel errors. Every operation boundary classifies failures into one of
// these so callers can map them to user-facing messages uniformly.
var (
	// ErrValidation covers duplicate names and empty required fields; the
	// operation aborts before any write.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means a referenced entity vanished (e.g. deleted from
	// another screen); callers should refresh their state.
	ErrNotFound = errors.New("resource not found")

	// ErrFileMissing means the record store and the file store disagree:
	// a document row exists but its physical file does not.
	ErrFileMissing = errors.New("physical file missing")

	// ErrStorage covers database and filesystem failures that abort an
	// operation with no partial commit.
	ErrStorage = errors.New("storage error")

	// ErrNoConditionSelected is returned when a scan is requested without
	// an extraction condition.
	ErrNoConditionSelected = errors.New("no condition selected")

	// ErrMissingCredential is returned when no extraction credential has
	// been configured for the session.
	ErrMissingCredential = errors.New("extraction credential not configured")

	// ErrUnsupportedKind means the document's content kind cannot be sent
	// for extraction directly (e.g. a multi-page PDF).
	ErrUnsupportedKind = errors.New("unsupported file kind")

	// External capability failures. The document keeps its prior scanned
	// state and the user may retry.
	ErrExtractionFailed   = errors.New("extraction failed")
	ErrAuth               = errors.New("authentication failed")
	ErrTransport          = errors.New("transport error")
	ErrUnsupportedContent = errors.New("unsupported content")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ValidationErrorf builds an ErrValidation with a formatted message.
func ValidationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundErrorf builds an ErrNotFound with a formatted message.
func NotFoundErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
