// Package errors defines the typed outcomes returned by the gift card ledger.
// Every failure carries a Kind that the HTTP layer maps to a status code.
package errors

import (
	stderrors "errors"
	"fmt"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindStore      Kind = "store"
)

// DomainError is a classified error with a stable code and a client-facing message.
type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code so wrapped copies of a sentinel still compare equal.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Validation returns a client-caused error.
func Validation(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

func NotFound(code, message string) *DomainError {
	return &DomainError{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string) *DomainError {
	return &DomainError{Kind: KindConflict, Code: code, Message: message}
}

// Store wraps a backing-store failure.
func Store(message string, err error) *DomainError {
	return &DomainError{Kind: KindStore, Code: "STORE_ERROR", Message: message, Err: err}
}

// KindOf reports the kind of err. Unclassified errors are store errors.
func KindOf(err error) Kind {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Kind
	}
	return KindStore
}

// MessageOf returns the client-facing message of err.
func MessageOf(err error) string {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Message
	}
	return "Internal server error"
}

// HTTPStatus maps a kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return 400
	case KindNotFound:
		return 404
	case KindConflict:
		return 409
	default:
		return 500
	}
}
