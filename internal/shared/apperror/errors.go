// Package apperror is the typed error taxonomy returned by presales operations.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and transport mapping.
type Kind string

const (
	KindValidation Kind = "VALIDATION_ERROR"
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindStorage    Kind = "STORAGE_ERROR"
	KindExhausted  Kind = "EXHAUSTED"
)

// Error carries a kind, the failing operation and an optional cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may resubmit the whole operation.
func (e *Error) Retryable() bool {
	return e.Kind == KindConflict || e.Kind == KindStorage
}

func Validation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

func NotFound(op, message string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

func Conflict(op, message string, err error) *Error {
	return &Error{Kind: KindConflict, Op: op, Message: message, Err: err}
}

func Storage(op, message string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, Message: message, Err: err}
}

// Exhausted reports a capacity limit that resubmitting cannot get past.
func Exhausted(op, message string, err error) *Error {
	return &Error{Kind: KindExhausted, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	return false
}
