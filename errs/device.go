package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Capture device errors
var (
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrDeviceBusy        = fmt.Errorf("%w: device busy", ErrDeviceUnavailable)
	ErrPermissionDenied  = fmt.Errorf("%w: permission denied", ErrDeviceUnavailable)
)

func NewDeviceUnavailableError(device string, cause error) *ApiErr {
	err := ErrDeviceUnavailable
	switch {
	case errors.Is(cause, ErrDeviceBusy):
		err = ErrDeviceBusy
	case errors.Is(cause, ErrPermissionDenied):
		err = ErrPermissionDenied
	}
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        err,
		Details:    fmt.Sprintf("Camera %q could not be opened", device),
		Cause:      cause,
		Field:      "camera",
	}
}

func IsDeviceUnavailable(err error) bool {
	return errors.Is(err, ErrDeviceUnavailable)
}
