package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures so that every layer can surface them with
// a consistent HTTP status.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUpstreamParse
	KindUpstreamConnection
)

// String returns the kind's name.
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpstreamParse:
		return "upstream_parse"
	case KindUpstreamConnection:
		return "upstream_connection"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind onto the status code returned to clients.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstreamParse:
		return http.StatusUnprocessableEntity
	case KindUpstreamConnection:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Message is safe to show to clients; Err
// carries the underlying cause, if any.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed input or invalid date math.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an empty parent search or a missing update target.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a uniqueness violation such as a near-duplicate tag.
func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// UpstreamParse reports a response from an upstream service that does not
// have the expected shape.
func UpstreamParse(err error) error {
	return &Error{Kind: KindUpstreamParse, Message: "failed to parse upstream response", Err: err}
}

// UpstreamConnection reports a transport failure to an upstream service or
// to the loopback surface.
func UpstreamConnection(err error) error {
	return &Error{Kind: KindUpstreamConnection, Message: "failed to reach upstream", Err: err}
}

// Internal wraps unexpected failures.
func Internal(err error) error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain. Unclassified
// errors are Internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}
