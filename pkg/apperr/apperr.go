// Package apperr defines the error taxonomy shared by the admission-control
// services. Handlers map kinds onto HTTP statuses; services decide the kind.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	// KindInternal is the default for unclassified failures.
	KindInternal Kind = iota
	// KindBadRequest covers malformed or expired input (bad email/phone,
	// expired code, weak password).
	KindBadRequest
	// KindForbidden covers policy rejections (blocked channel, personal
	// domain, domain already owned, unverified entry, lost claim race).
	KindForbidden
	// KindNotFound covers missing waitlist entries and invites.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error carries a kind, a caller-safe message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BadRequest creates a BadRequest error with a caller-safe message.
func BadRequest(message string) error {
	return &Error{Kind: KindBadRequest, Message: message}
}

// Forbidden creates a Forbidden error with a caller-safe message.
func Forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound creates a NotFound error with a caller-safe message.
func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Internal wraps an unexpected failure with a caller-safe message.
func Internal(message string, err error) error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message of err, or a generic fallback
// for plain errors so internals never leak to anonymous callers.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
