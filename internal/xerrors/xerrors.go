// Package xerrors provides the shared error-kind taxonomy used across
// the repository manager: InvalidRepository, Cancelled, IoError,
// Corrupt, and ProviderError, with Wrap/Is helpers built on the
// standard errors package.
package xerrors

import (
	"errors"
	"fmt"
)

// Kind classifies why a repository manager operation failed.
type Kind string

const (
	// InvalidRepository means the provider reports the URL is not a
	// usable repository (unreachable, deleted, or not VCS-shaped).
	InvalidRepository Kind = "invalid_repository"

	// Cancelled means the operation was cancelled before completion.
	Cancelled Kind = "cancelled"

	// IoError means a catalog read/write or directory create/delete
	// failed.
	IoError Kind = "io_error"

	// Corrupt means an on-disk clone failed validation and the retry
	// also failed.
	Corrupt Kind = "corrupt"

	// ProviderError wraps any other provider-side failure.
	ProviderError Kind = "provider_error"
)

// Error is a kind-tagged error carrying the specifier URL the
// operation concerned and, optionally, the underlying cause.
type Error struct {
	Kind      Kind
	Specifier string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Specifier != "" {
		msg += " for '" + e.Specifier + "'"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is (or wraps) an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// New builds an *Error of the given kind for the given specifier.
func New(kind Kind, specifier, message string) *Error {
	return &Error{Kind: kind, Specifier: specifier, Message: message}
}

// Wrap attaches kind/specifier context to an existing error. A nil err
// returns nil.
func Wrap(err error, kind Kind, specifier string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Specifier: specifier, Cause: err}
}

// WrapWithMessage is Wrap plus a human-readable message.
func WrapWithMessage(err error, kind Kind, specifier, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Specifier: specifier, Message: message, Cause: err}
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf extracts the Kind from err, if any, and whether it was found.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

// Fmt builds a plain *Error with a formatted message, analogous to
// fmt.Errorf but tagged with a Kind for the manager's error taxonomy.
func Fmt(kind Kind, specifier, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Specifier: specifier, Message: fmt.Sprintf(format, args...)}
}
