package backend

import (
	"errors"
	"fmt"
)

// AppError reports a response where the backend answered with success=false.
type AppError struct {
	Op      string
	Status  int
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: backend error (status %d): %s", e.Op, e.Status, e.Message)
}

// TransportError reports a request that failed before a well-formed envelope
// was received: network errors, unreadable bodies, or unexpected shapes.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsAppError reports whether err is an application-level failure and returns it.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsTransportError reports whether err is a transport-level failure.
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
