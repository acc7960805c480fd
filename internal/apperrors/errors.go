package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound is returned when a resource is missing or not visible to the caller
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrForbidden is returned when the caller does not own the resource
type ErrForbidden struct {
	Message string
}

func (e *ErrForbidden) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "forbidden"
}

// ErrBadRequest is returned when the request cannot be applied in the current state
type ErrBadRequest struct {
	Message string
}

func (e *ErrBadRequest) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "bad request"
}

// ErrUnauthorized is returned when authentication fails
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrConflict is returned when persisted state changed underneath the caller
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflict"
}

// ErrInvalidStateTransition is returned when an invalid state transition is attempted.
// It is a bad request: Valid lists what the caller could have asked for instead.
type ErrInvalidStateTransition struct {
	From  string
	To    string
	Valid []string
}

func (e *ErrInvalidStateTransition) Error() string {
	if len(e.Valid) == 0 {
		return fmt.Sprintf("cannot change status from %s: %s is a final status", e.From, e.From)
	}
	return fmt.Sprintf("invalid status transition from %s to %s; valid transitions: %s",
		e.From, e.To, strings.Join(e.Valid, ", "))
}

func NotFound(resource, id string) error {
	return &ErrNotFound{Resource: resource, ID: id}
}

func Forbidden(format string, args ...interface{}) error {
	return &ErrForbidden{Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...interface{}) error {
	return &ErrBadRequest{Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) error {
	return &ErrConflict{Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is (or wraps) an ErrNotFound.
func IsNotFound(err error) bool {
	var target *ErrNotFound
	return errors.As(err, &target)
}

// IsBadRequest reports whether err is a bad request, including invalid transitions.
func IsBadRequest(err error) bool {
	var br *ErrBadRequest
	var tr *ErrInvalidStateTransition
	return errors.As(err, &br) || errors.As(err, &tr)
}

func IsForbidden(err error) bool {
	var target *ErrForbidden
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ErrConflict
	return errors.As(err, &target)
}

// HTTPStatus maps an error to the status code handlers respond with.
func HTTPStatus(err error) int {
	var unauthorized *ErrUnauthorized
	switch {
	case err == nil:
		return http.StatusOK
	case IsNotFound(err):
		return http.StatusNotFound
	case IsForbidden(err):
		return http.StatusForbidden
	case IsBadRequest(err):
		return http.StatusBadRequest
	case IsConflict(err):
		return http.StatusConflict
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
