package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Timeout & Cancellation Errors
var (
	ErrContextDeadline    = errors.New("context deadline exceeded")
	ErrClientDisconnected = errors.New("client disconnected")
)

// Configuration & Dependency Errors
var (
	ErrConfigMissing      = errors.New("configuration missing")
	ErrServiceUnreachable = errors.New("service unreachable")
)

// NewCancelledError maps a context error to the matching API error
func NewCancelledError(operation string, cause error) *ApiErr {
	if errors.Is(cause, context.DeadlineExceeded) {
		return &ApiErr{
			StatusCode: http.StatusRequestTimeout,
			err:        ErrContextDeadline,
			Details:    fmt.Sprintf("Context deadline exceeded for %s", operation),
			Cause:      cause,
			Field:      "timeout",
		}
	}
	return &ApiErr{
		StatusCode: http.StatusRequestTimeout,
		err:        ErrClientDisconnected,
		Details:    fmt.Sprintf("Request cancelled during %s", operation),
		Cause:      cause,
		Field:      "client",
	}
}

func NewConfigError(configName string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigMissing,
		Details:    fmt.Sprintf("Configuration %s is missing or invalid", configName),
		Cause:      cause,
		Field:      "config",
	}
}

func NewServiceUnreachableError(service string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrServiceUnreachable,
		Details:    fmt.Sprintf("Service %s is unreachable", service),
		Cause:      cause,
		Field:      "service",
	}
}

// IsCancelled reports whether err came from a cancelled or expired request context
func IsCancelled(err error) bool {
	return errors.Is(err, ErrClientDisconnected) || errors.Is(err, ErrContextDeadline) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
