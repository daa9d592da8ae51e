// Package errors defines the domain error taxonomy shared by the store, the
// services and the HTTP layer.
package errors

import "fmt"

// Kind groups domain errors by how a caller should react to them.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindConflict          Kind = "conflict"
	KindUnavailable       Kind = "unavailable"
	KindDuplicateOwner    Kind = "duplicate_owner"
	KindAuthentication    Kind = "authentication"
	KindForbidden         Kind = "forbidden"
)

// DomainError is a typed, caller-facing failure.
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
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code, or on Kind alone when the target carries no Code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Code == "" {
		return t.Kind == e.Kind
	}
	return t.Code == e.Code
}

// Wrap returns a copy of e carrying err as its cause.
func (e *DomainError) Wrap(err error) *DomainError {
	cp := *e
	cp.Err = err
	return &cp
}

// WithMessage returns a copy of e with a more specific message.
func (e *DomainError) WithMessage(format string, args ...interface{}) *DomainError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Retryable reports whether the failure may succeed when repeated unchanged.
func (e *DomainError) Retryable() bool {
	return e.Kind == KindConflict || e.Kind == KindUnavailable
}

// Kind sentinels, for errors.Is checks against a whole category.
var (
	ErrValidation        = &DomainError{Kind: KindValidation}
	ErrNotFound          = &DomainError{Kind: KindNotFound}
	ErrInsufficientFunds = &DomainError{Kind: KindInsufficientFunds}
	ErrConflict          = &DomainError{Kind: KindConflict}
	ErrUnavailable       = &DomainError{Kind: KindUnavailable}
	ErrDuplicateOwner    = &DomainError{Kind: KindDuplicateOwner}
	ErrAuthentication    = &DomainError{Kind: KindAuthentication}
	ErrForbidden         = &DomainError{Kind: KindForbidden}
)
