package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for the boundary. Every kind maps to a distinct
// HTTP status.
type Kind string

const (
	KindValidation           Kind = "validation"
	KindUnsupportedOperation Kind = "unsupported_operation"
	KindNotFound             Kind = "not_found"
	KindCodec                Kind = "codec"
	KindStore                Kind = "store"
	KindInternal             Kind = "internal"
)

type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(field, format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func UnsupportedOperation(name string) *Error {
	return &Error{
		Kind:    KindUnsupportedOperation,
		Field:   "operation",
		Message: fmt.Sprintf("unsupported operation %q", name),
	}
}

func NotFound(key string, err error) *Error {
	return &Error{
		Kind:    KindNotFound,
		Field:   "key",
		Message: fmt.Sprintf("image %q not found", key),
		Err:     err,
	}
}

func Codec(action string, err error) *Error {
	return &Error{
		Kind:    KindCodec,
		Message: action + " failed",
		Err:     err,
	}
}

func Store(action string, err error) *Error {
	return &Error{
		Kind:    KindStore,
		Message: action + " failed",
		Err:     err,
	}
}

func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnsupportedOperation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindCodec:
		return http.StatusUnsupportedMediaType
	case KindStore:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// SafeMessage returns text fit for a client. Wrapped causes stay server side.
func SafeMessage(err error) string {
	appErr, ok := As(err)
	if !ok {
		return "internal server error"
	}
	return appErr.Message
}
