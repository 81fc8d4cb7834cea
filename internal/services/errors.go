package services

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map each kind to one HTTP status.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrBadRequest          = errors.New("bad request")
	ErrNotFound            = errors.New("not found")
	ErrExpired             = errors.New("expired")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("conflict")
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrBadGateway          = errors.New("upstream request failed")
	ErrUpstreamUnparseable = errors.New("upstream returned unparseable content")
	ErrRateLimited         = errors.New("rate limited")
)

// Error carries a user-facing message alongside its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
