package services

import "errors"

// Client-caused failures. Handlers map these to 400/404; anything else that
// escapes a service is a server-side failure and maps to 500.
var (
	ErrEmptyUpload     = errors.New("empty upload not allowed")
	ErrUploadTooLarge  = errors.New("upload exceeds maximum size")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidID       = errors.New("malformed window id")
	ErrNotFound        = errors.New("window not found")
	ErrInvalidPage     = errors.New("page must be >= 1")
	ErrInvalidLimit    = errors.New("limit must be between 1 and 100")
)
