// Package apierror defines the error taxonomy every service operation reports
// and the JSON envelope used to print it. Store errors never reach callers
// raw: they are classified here as StorageError.
package apierror

import (
	"context"
	"errors"
	"fmt"
)

// Kind identifies a class of failure.
type Kind string

const (
	KindDuplicateName        Kind = "duplicate_name"
	KindDuplicateVariantCode Kind = "duplicate_variant_code"
	KindSequenceExhausted    Kind = "sequence_exhausted"
	KindInvalidQuantity      Kind = "invalid_quantity"
	KindSelfReference        Kind = "self_reference"
	KindNotAKit              Kind = "not_a_kit"
	KindNestedKit            Kind = "nested_kit"
	KindReferencedByKit      Kind = "referenced_by_kit"
	KindNotFound             Kind = "not_found"
	KindValidation           Kind = "validation"
	KindStorage              Kind = "storage_error"
)

// Error is a classified failure. Two errors match under errors.Is when their
// kinds are equal, so the sentinels below work as targets.
type Error struct {
	Kind   Kind
	Detail string
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrDuplicateName        = &Error{Kind: KindDuplicateName}
	ErrDuplicateVariantCode = &Error{Kind: KindDuplicateVariantCode}
	ErrSequenceExhausted    = &Error{Kind: KindSequenceExhausted}
	ErrInvalidQuantity      = &Error{Kind: KindInvalidQuantity}
	ErrSelfReference        = &Error{Kind: KindSelfReference}
	ErrNotAKit              = &Error{Kind: KindNotAKit}
	ErrNestedKit            = &Error{Kind: KindNestedKit}
	ErrReferencedByKit      = &Error{Kind: KindReferencedByKit}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrPartNotFound         = &Error{Kind: KindNotFound, Detail: "part not found"}
	ErrValidation           = &Error{Kind: KindValidation}
	ErrStorage              = &Error{Kind: KindStorage}
)

// New builds a classified error with a formatted detail.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Storage wraps a store failure. The cause is kept for logs only; Detail
// never repeats driver text.
func Storage(err error) *Error {
	detail := "storage unavailable"
	if errors.Is(err, context.DeadlineExceeded) {
		detail = "storage timeout"
	}
	return &Error{Kind: KindStorage, Detail: detail, Err: err}
}

// NewValidation wraps per-field validation failures.
func NewValidation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Detail: "invalid input", Fields: fields}
}

// KindOf classifies err. Unclassified errors count as storage failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// Retryable reports whether repeating the operation may succeed. Only
// storage failures qualify; every other kind is a permanent verdict.
func Retryable(err error) bool {
	return err != nil && KindOf(err) == KindStorage
}

// APIError is the canonical error envelope printed to clients.
type APIError struct {
	Kind      Kind              `json:"kind"`
	Detail    string            `json:"detail"`
	Fields    map[string]string `json:"fields,omitempty"`
	Retryable bool              `json:"retryable"`
}

// Envelope converts any error into its client-facing form.
func Envelope(err error) *APIError {
	var e *Error
	if !errors.As(err, &e) {
		e = Storage(err)
	}
	detail := e.Detail
	if detail == "" {
		detail = string(e.Kind)
	}
	return &APIError{Kind: e.Kind, Detail: detail, Fields: e.Fields, Retryable: e.Kind == KindStorage}
}
