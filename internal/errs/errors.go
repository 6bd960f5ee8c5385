// Package errs provides the error type shared by the storage drivers, the
// listing services and the HTTP handlers.
//
// Drivers wrap native SDK errors into *errs.Error; handlers inspect the kind to
// pick a status code and surface the backend's own message unchanged.
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing SDK-specific types.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindStoreUnavailable         // backend unreachable or returned a failure
	ErrKindInvalidArgument          // caller input rejected before reaching the backend
	ErrKindNoConfiguration          // bucket has no configuration of the requested type
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindStoreUnavailable:
		return "store_unavailable"
	case ErrKindInvalidArgument:
		return "invalid_argument"
	case ErrKindNoConfiguration:
		return "no_configuration"
	default:
		return "unknown"
	}
}

// Error is the single error type returned across the module.
type Error struct {
	Kind    ErrKind
	Message string
	// Code is the backend error code (e.g. "NoSuchBucket") when one was reported.
	Code  string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// WithCode records the backend error code and returns the receiver.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// InvalidArgument is shorthand for New(ErrKindInvalidArgument, msg).
func InvalidArgument(msg string) *Error {
	return New(ErrKindInvalidArgument, msg)
}

// IsStoreUnavailable reports whether err is a backend failure.
func IsStoreUnavailable(err error) bool {
	return KindOf(err) == ErrKindStoreUnavailable
}

// IsInvalidArgument reports whether err was caused by bad caller input.
func IsInvalidArgument(err error) bool {
	return KindOf(err) == ErrKindInvalidArgument
}

// IsNoConfiguration reports whether the backend said no configuration is set.
func IsNoConfiguration(err error) bool {
	return KindOf(err) == ErrKindNoConfiguration
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

// PublicMessage returns the text shown to API callers. Backend failures pass
// the backend's message through verbatim; caller errors use their own message.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause != nil {
		return PublicMessage(e.Cause)
	}
	return e.Message
}
