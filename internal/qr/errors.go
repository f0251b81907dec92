package qr

import (
	"errors"
	"fmt"
)

// Kind is the stable machine-readable error class reported to callers.
type Kind string

const (
	KindValidation       Kind = "validation_error"
	KindTemplateNotFound Kind = "template_not_found"
	KindNoCodeFound      Kind = "no_code_found"
	KindStoreUnavailable Kind = "store_unavailable"
)

// Error carries a Kind plus a human message. The wrapped cause stays internal
// and is never serialized to callers.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func NewValidationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewTemplateNotFoundError(templateID string) *Error {
	return &Error{Kind: KindTemplateNotFound, Message: "template not found: " + templateID}
}

func NewNoCodeFoundError(cause error) *Error {
	return &Error{Kind: KindNoCodeFound, Message: "no code found in image", cause: cause}
}

func NewStoreUnavailableError(cause error) *Error {
	return &Error{Kind: KindStoreUnavailable, Message: "record store unavailable", cause: cause}
}

// KindOf extracts the Kind from an error chain, or "" for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
