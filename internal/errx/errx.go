package errx

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound marks an item, recipe or server name that the catalog or an
	// upstream API does not know.
	ErrNotFound = errors.New("not found")
	// ErrInvalidResponse marks a failed or empty upstream response.
	ErrInvalidResponse = errors.New("invalid response")
)

const (
	SystemErrorMessage   = "internal server error"
	NotFoundMessage      = "not found"
	UpstreamErrorMessage = "upstream market data unavailable"
)

// Error wraps an underlying error with an HTTP status and a message that is
// safe to show to users.
type Error struct {
	Err     error
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(err error, status int, message string) *Error {
	return &Error{Err: err, Status: status, Message: message}
}

// NotFound wraps ErrNotFound with what was looked up.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// InvalidResponse wraps ErrInvalidResponse with the offending URL.
func InvalidResponse(url string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w from url %s: %v", ErrInvalidResponse, url, cause)
	}
	return fmt.Errorf("%w from url %s", ErrInvalidResponse, url)
}

// Classify maps any error onto an *Error for the HTTP layer.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return New(err, http.StatusNotFound, NotFoundMessage)
	case errors.Is(err, ErrInvalidResponse):
		return New(err, http.StatusBadGateway, UpstreamErrorMessage)
	default:
		return New(err, http.StatusInternalServerError, SystemErrorMessage)
	}
}
