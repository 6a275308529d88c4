package function

import (
	"errors"
	"fmt"
)

// Kind is a closed taxonomy of error categories the core raises. Callers
// (the HTTP front door, admin tooling) discriminate on Kind rather than on
// concrete error types.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindValidation        Kind = "validation"
	KindAlreadyExists     Kind = "already_exists"
	KindBadBinary         Kind = "bad_binary"
	KindResourceExhausted Kind = "resource_exhausted"
	KindExecution         Kind = "execution"
	KindInternal          Kind = "internal"
)

// Error is the sum type carrying a Kind, the operation that raised it, a
// human-readable message, and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(op, message string) error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

func Validation(op, message string) error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

func AlreadyExists(op, message string) error {
	return &Error{Kind: KindAlreadyExists, Op: op, Message: message}
}

func BadBinary(op, message string) error {
	return &Error{Kind: KindBadBinary, Op: op, Message: message}
}

func ResourceExhausted(op, message string) error {
	return &Error{Kind: KindResourceExhausted, Op: op, Message: message}
}

func Execution(op, message string, cause error) error {
	return &Error{Kind: KindExecution, Op: op, Message: message, Err: cause}
}

func Internal(op, message string) error {
	return &Error{Kind: KindInternal, Op: op, Message: message}
}

// Wrap builds an Error of the given kind around an underlying cause.
func Wrap(kind Kind, op, message string, cause error) error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

// IsKind reports whether err (or something it wraps) is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == k
	}
	return false
}

func IsNotFound(err error) bool          { return IsKind(err, KindNotFound) }
func IsValidation(err error) bool        { return IsKind(err, KindValidation) }
func IsAlreadyExists(err error) bool     { return IsKind(err, KindAlreadyExists) }
func IsBadBinary(err error) bool         { return IsKind(err, KindBadBinary) }
func IsResourceExhausted(err error) bool { return IsKind(err, KindResourceExhausted) }
func IsExecution(err error) bool         { return IsKind(err, KindExecution) }
func IsInternal(err error) bool          { return IsKind(err, KindInternal) }
