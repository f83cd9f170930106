package services

import (
	"errors"
	"fmt"

	"task-manager/repositories"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrBadRequest      = errors.New("bad request")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInternal        = errors.New("internal error")
)

// AppError carries one of the error kinds above plus a caller-facing message.
// Err holds the underlying cause for Internal errors and is never shown to clients
// as the message.
type AppError struct {
	Kind error
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Msg
}

func (e *AppError) Unwrap() error { return e.Kind }

func notFound(msg string) error {
	return &AppError{Kind: ErrNotFound, Msg: msg}
}

func badRequest(format string, args ...any) error {
	return &AppError{Kind: ErrBadRequest, Msg: fmt.Sprintf(format, args...)}
}

func forbidden(msg string) error {
	return &AppError{Kind: ErrForbidden, Msg: msg}
}

func unauthenticated(msg string) error {
	return &AppError{Kind: ErrUnauthenticated, Msg: msg}
}

func internal(msg string, err error) error {
	return &AppError{Kind: ErrInternal, Msg: msg, Err: err}
}

// storeError maps a repository failure to the taxonomy. ErrNotFound becomes
// NotFound with the given message, everything else is Internal.
func storeError(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return notFound(notFoundMsg)
	case errors.Is(err, repositories.ErrDuplicateKey):
		return badRequest("duplicate record")
	default:
		return internal("Server error", err)
	}
}
