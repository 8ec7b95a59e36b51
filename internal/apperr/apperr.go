// Package apperr defines the error kinds returned by the service layer and
// their mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// None is the kind of a nil error.
	None Kind = iota
	Internal
	Unauthorized
	NotFound
	Forbidden
	Validation
	Conflict
	AlreadyMember
	CannotRemoveOwner
	Unavailable
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case Validation:
		return "validation_error"
	case Conflict:
		return "conflict"
	case AlreadyMember:
		return "already_member"
	case CannotRemoveOwner:
		return "cannot_remove_owner"
	case Unavailable:
		return "unavailable"
	case None:
		return "none"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case Unauthorized:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	case Validation, AlreadyMember, CannotRemoveOwner:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a tagged error carrying a short user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	// Extra is merged into the JSON error body.
	Extra map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags err as an internal failure with a generic message.
func Wrap(err error, msg string) *Error {
	return &Error{Kind: Internal, Message: msg, Err: err}
}

// Propagate returns err unchanged if it already carries a kind and wraps it
// as Internal otherwise.
func Propagate(err error, msg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Wrap(err, msg)
}

// KindOf reports the kind of err: None for nil, Internal when untagged.
func KindOf(err error) Kind {
	if err == nil {
		return None
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is tagged with kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
