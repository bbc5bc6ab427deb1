package service

import (
	"errors"

	"github.com/iliyamo/venue-booking/internal/access"
)

// Error kinds.  Every error returned by a service either wraps one of
// these or is an unexpected storage failure.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = access.ErrForbidden
	ErrUnauthorized      = access.ErrUnauthorized
)

// Error carries a client facing message and the kind it belongs to.
type Error struct {
	Kind  error
	Field string // set for validation errors
	Msg   string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func validation(field, msg string) error {
	return &Error{Kind: ErrValidation, Field: field, Msg: msg}
}

func required(field string) error {
	return validation(field, field+" is required")
}

func notFound(msg string) error { return &Error{Kind: ErrNotFound, Msg: msg} }

func conflict(msg string) error { return &Error{Kind: ErrConflict, Msg: msg} }

func invalidTransition(msg string) error {
	return &Error{Kind: ErrInvalidTransition, Msg: msg}
}

// IsPermanent reports whether retrying the call that produced err cannot
// succeed.
func IsPermanent(err error) bool {
	for _, k := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrInvalidTransition, ErrForbidden, ErrUnauthorized} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
