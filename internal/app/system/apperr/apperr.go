// Package apperr defines the error kinds the engagement and team-formation
// operations report to callers.
//
// Every operation failure is either one of these kinds or an internal error.
// Callers branch with errors.Is against the sentinel values or with KindOf:
//
//	if errors.Is(err, apperr.ErrForbidden) { ... }
//	switch apperr.KindOf(err) { case apperr.KindInvalidState: ... }
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindInternal         Kind = "internal"
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindForbidden        Kind = "forbidden"
	KindInvalidState     Kind = "invalid_state"
	KindInvalidOperation Kind = "invalid_operation"
	KindUnauthorized     Kind = "unauthorized"
)

// Sentinels for errors.Is matching. They compare by Kind only.
var (
	ErrValidation       = &Error{Kind: KindValidation}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrForbidden        = &Error{Kind: KindForbidden}
	ErrInvalidState     = &Error{Kind: KindInvalidState}
	ErrInvalidOperation = &Error{Kind: KindInvalidOperation}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
)

// Error is an application error with a kind, a caller-facing message and an
// optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or KindInternal when err carries none.
// A nil error has no kind and returns "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Message returns the caller-facing message for err.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if KindOf(err) == KindInternal {
		return "internal error"
	}
	return err.Error()
}

func newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed or missing input.
func Validation(format string, args ...any) error { return newf(KindValidation, format, args...) }

// NotFound reports a missing content item or member.
func NotFound(format string, args ...any) error { return newf(KindNotFound, format, args...) }

// Forbidden reports an actor without authority for the request.
func Forbidden(format string, args ...any) error { return newf(KindForbidden, format, args...) }

// InvalidState reports a transition requested from a state that does not allow it.
func InvalidState(format string, args ...any) error { return newf(KindInvalidState, format, args...) }

// InvalidOperation reports an action that does not apply to the content kind.
func InvalidOperation(format string, args ...any) error {
	return newf(KindInvalidOperation, format, args...)
}

// Unauthorized reports a request without a signed-in actor.
func Unauthorized(format string, args ...any) error { return newf(KindUnauthorized, format, args...) }

// Wrap attaches kind and message to an underlying error.
func Wrap(kind Kind, err error, message string) error {
	return &Error{Kind: kind, Message: message, Err: err}
}
