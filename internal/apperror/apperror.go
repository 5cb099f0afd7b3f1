// Package apperror defines the domain errors shared by the service, HTTP and
// CLI layers. Every failure a user can trigger ends as one of these, carrying
// the status message that should be shown to them.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrRefused    = errors.New("refused")
)

type AppError struct {
	Err     error  // sentinel, matched with errors.Is
	Message string // user-facing status message
	Field   string // optional: input that caused the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundMessage is NotFound with a caller-chosen status message, used when
// the message is shown verbatim to the user.
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Refused reports an operation that was declined because it would break a
// standing invariant (removing the last file, deleting the last bin) or
// because the user did not confirm it. State is left untouched.
func Refused(message string) *AppError {
	return &AppError{
		Err:     ErrRefused,
		Message: message,
	}
}

// Message returns the user-facing message of err if it is an *AppError, or
// fallback otherwise.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return fallback
}
