// Package apperr defines the closed set of errors that the contacts API can report to its callers.
// Every failure leaving the data access layer is one of these kinds, and the HTTP layer maps each
// kind to exactly one status code.
package apperr

import (
	stderrors "errors"
	"fmt"
)

// Kind discriminates the error variants.
type Kind int

const (
	// KindUnexpected is any store-level or otherwise unhandled failure.
	KindUnexpected Kind = iota
	// KindMalformedInput is an invalid identifier or a request body violating the contact schema.
	KindMalformedInput
	// KindNotFound means that the operation targets a contact that does not exist.
	KindNotFound
	// KindConflict means that a uniqueness constraint was violated.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindMalformedInput:
		return "malformed input"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	default:
		return "unexpected"
	}
}

// Error is a tagged error carrying a human-readable message and optional field-level details.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// MalformedInput creates an error for an invalid identifier or request body.
func MalformedInput(message string, details ...string) *Error {
	return &Error{Kind: KindMalformedInput, Message: message, Details: details}
}

// NotFound creates an error for a missing contact.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict creates an error for a violated uniqueness constraint.
func Conflict(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

// Unexpected wraps a failure that callers cannot do anything about.
func Unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Message: "unexpected error", Err: err}
}

// From returns err as an *Error. Errors that are not tagged are reported as unexpected.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Unexpected(err)
}

// Is reports whether err is tagged with the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return stderrors.As(err, &appErr) && appErr.Kind == kind
}
