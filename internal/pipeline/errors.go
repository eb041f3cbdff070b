package pipeline

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// FieldError names one violated field and the reason.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated field of a payload.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// NotFoundError is returned when an operation targets a missing id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// DuplicateKeyError is returned when a unique business key collides.
type DuplicateKeyError struct {
	Resource string
	Key      string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s with the same %s already exists", e.Resource, e.Key)
}

// UploadError wraps a media store failure. The whole request fails; no
// record is written.
type UploadError struct {
	Field string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %q failed: %v", e.Field, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// StatusOf maps the error taxonomy onto HTTP status codes. Anything outside
// the taxonomy is an internal error.
func StatusOf(err error) int {
	switch err.(type) {
	case *ValidationError:
		return fiber.StatusBadRequest
	case *NotFoundError:
		return fiber.StatusNotFound
	case *DuplicateKeyError:
		return fiber.StatusConflict
	case *UploadError:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
