package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries an HTTP-equivalent status alongside the cause. Handlers map
// it straight onto the response envelope; anything that is not an *Error is
// reported generically.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(http.StatusBadRequest, "validation_error", fmt.Errorf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, "not_found", fmt.Errorf(format, args...))
}

// Conflict is a duplicate-create fault. It surfaces as 400 to match the
// widget API's wire contract.
func Conflict(format string, args ...any) *Error {
	return New(http.StatusBadRequest, "conflict", fmt.Errorf(format, args...))
}

// Upstream is a failed downstream call; status carries the upstream's code
// where meaningful (504 timeout, 502 connection failure, or the echoed code).
func Upstream(status int, format string, args ...any) *Error {
	return New(status, "upstream_error", fmt.Errorf(format, args...))
}

func Configuration(format string, args ...any) *Error {
	return New(http.StatusInternalServerError, "configuration_error", fmt.Errorf(format, args...))
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, "internal_error", err)
}

// As unwraps err into an *Error when one is anywhere in the chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
