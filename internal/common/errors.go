package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
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

// Failure taxonomy for the lead lifecycle. Callers wrap these with %w so
// errors.Is works across package boundaries.
var (
	// ErrStoreUnavailable covers any failed read/write against the lead store.
	ErrStoreUnavailable = errors.New("lead store unavailable")
	// ErrFetchFailure means the scraper exhausted its retries against the source page.
	ErrFetchFailure = errors.New("source fetch failed")
	// ErrExtractionFailure means the extraction agent returned malformed or absent output.
	ErrExtractionFailure = errors.New("extraction output invalid")
	// ErrProcessingFailure means the downstream contact step failed after a successful claim.
	ErrProcessingFailure = errors.New("lead processing failed")

	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
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

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}
