package usecase

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrorUnauthenticated ErrorCode = "UNAUTHENTICATED"
	ErrorNotFound        ErrorCode = "NOT_FOUND"
	ErrorConfiguration   ErrorCode = "CONFIGURATION_ERROR"
	ErrorRateLimited     ErrorCode = "RATE_LIMITED"
	ErrorUpstream        ErrorCode = "UPSTREAM_ERROR"
	ErrorEmptyResponse   ErrorCode = "EMPTY_RESPONSE"
	ErrorInternal        ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or
// ErrorInternal for anything else.
func CodeOf(err error) ErrorCode {
	var ucErr *Error
	if errors.As(err, &ucErr) {
		return ucErr.Code
	}
	return ErrorInternal
}

// IsConfiguration reports a missing or unusable backend credential.
func IsConfiguration(err error) bool { return CodeOf(err) == ErrorConfiguration }

// IsUpstream reports a transport or HTTP failure from the backend, including rate limiting.
func IsUpstream(err error) bool {
	code := CodeOf(err)
	return code == ErrorUpstream || code == ErrorRateLimited
}

// IsEmptyResponse reports a backend call that succeeded without usable content.
func IsEmptyResponse(err error) bool { return CodeOf(err) == ErrorEmptyResponse }
