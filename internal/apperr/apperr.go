// internal/apperr/apperr.go

// Package apperr defines the error kinds services return. Callers switch on
// the kind; the message is for humans only.
package apperr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindValidation
	KindInvalidState
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation_failed"
	case KindInvalidState:
		return "invalid_state"
	case KindStore:
		return "store_error"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindStore {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	if e.Op != "" {
		return e.Op + ": " + e.Message
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// Message returns the human-readable message of err without the op prefix.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func newf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Unauthenticated(op string) *Error {
	return newf(KindUnauthenticated, op, "authentication required")
}

func Forbidden(op, format string, args ...interface{}) *Error {
	return newf(KindForbidden, op, format, args...)
}

func NotFound(op, format string, args ...interface{}) *Error {
	return newf(KindNotFound, op, format, args...)
}

func Conflict(op, format string, args ...interface{}) *Error {
	return newf(KindConflict, op, format, args...)
}

func Validation(op, format string, args ...interface{}) *Error {
	return newf(KindValidation, op, format, args...)
}

func InvalidState(op, format string, args ...interface{}) *Error {
	return newf(KindInvalidState, op, format, args...)
}

// Store wraps an unexpected persistence failure. Errors that already carry a
// kind pass through untouched so domain failures raised inside a transaction
// keep their meaning.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{
		Kind:    KindStore,
		Op:      op,
		Message: "store operation failed",
		Err:     pkgerrors.WithStack(err),
	}
}
