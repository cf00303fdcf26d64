package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a failure so handlers can map it to an HTTP status
// without inspecting error strings.
type Code string

const (
	NotFound          Code = "not_found"
	InvalidArgument   Code = "invalid_argument"
	InvalidState      Code = "invalid_state"
	Conflict          Code = "conflict"
	Unauthorized      Code = "unauthorized"
	DependencyTimeout Code = "dependency_timeout"
	Internal          Code = "internal"
)

// Error carries the failure code plus the entity it concerns, so callers
// get enough context to act (entity id, current vs requested state).
type Error struct {
	Code   Code   `json:"code"`
	Entity string `json:"entity,omitempty"`
	ID     string `json:"id,omitempty"`
	Msg    string `json:"message"`
	Err    error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Entity != "" && e.ID != "" {
		return fmt.Sprintf("%s: %s %s: %s", e.Code, e.Entity, e.ID, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, entity, id, msg string) *Error {
	return &Error{Code: code, Entity: entity, ID: id, Msg: msg}
}

func Newf(code Code, entity, id, format string, args ...any) *Error {
	return &Error{Code: code, Entity: entity, ID: id, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, entity, id string, err error) *Error {
	return &Error{Code: code, Entity: entity, ID: id, Msg: err.Error(), Err: err}
}

// CodeOf extracts the classification of err, or Internal for plain errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}

func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// HTTPStatus maps a code to the wire status used across the API.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case NotFound:
		return http.StatusNotFound
	case InvalidArgument, InvalidState:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case Unauthorized:
		return http.StatusUnauthorized
	case DependencyTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
