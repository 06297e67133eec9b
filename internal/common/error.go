// Package common defines the error kinds and small helpers shared by every
// layer of the housing backend. Callers should use errors.Is against the
// sentinel values to match a kind, and errors.As to reach the *Error itself
// (for example to read a retry-after hint).
package common

import (
	"errors"
	"fmt"
	"time"
)

// Kind is the machine-readable discriminant of an Error.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindNotFound
	KindPermissionDenied
	KindRateLimited
	KindExpired
	KindUnauthenticated
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindRateLimited:
		return "rate_limited"
	case KindExpired:
		return "expired"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a structured, expected failure. Message is safe to show to the
// caller; Err (if any) is the underlying cause and is only meant for logs.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality, so errors.Is(err, common.ErrorNotFound) holds for
// any not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	// Repository-level errors.
	ErrorNotFound = &Error{Kind: KindNotFound, Message: "not found"}
	ErrorConflict = &Error{Kind: KindConflict, Message: "already exists"}

	// Service-level errors.
	ErrorInternal         = &Error{Kind: KindInternal, Message: "internal error"}
	ErrorInvalidArgument  = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}
	ErrorPermissionDenied = &Error{Kind: KindPermissionDenied, Message: "permission denied"}
	ErrorRateLimited      = &Error{Kind: KindRateLimited, Message: "too many requests"}
	ErrorExpired          = &Error{Kind: KindExpired, Message: "expired"}
	ErrorUnauthorized     = &Error{Kind: KindUnauthenticated, Message: "unauthorized"}

	// Token errors.
	ErrInvalidToken        = &Error{Kind: KindUnauthenticated, Message: "invalid token"}
	ErrTokenExpired        = &Error{Kind: KindUnauthenticated, Message: "token expired"}
	ErrRefreshTokenExpired = &Error{Kind: KindUnauthenticated, Message: "refresh token expired"}
)

// NewError builds an Error of the given kind with a caller-facing message.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func InvalidArgument(msg string) *Error  { return NewError(KindInvalidArgument, msg) }
func NotFound(msg string) *Error         { return NewError(KindNotFound, msg) }
func PermissionDenied(msg string) *Error { return NewError(KindPermissionDenied, msg) }
func Conflict(msg string) *Error         { return NewError(KindConflict, msg) }

// RateLimited returns a rate-limit rejection carrying the retry hint.
func RateLimited(msg string, retryAfter time.Duration) *Error {
	return &Error{Kind: KindRateLimited, Message: msg, RetryAfter: retryAfter}
}

// Internal hides cause behind the generic internal message.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: ErrorInternal.Message, Err: cause}
}

// KindOf returns the kind of err, treating anything unstructured as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
