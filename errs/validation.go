package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrValidationFailure is the root of every input validation error
var ErrValidationFailure = errors.New("validation failure")

// Request & Input-Validation Errors
var (
	ErrMalformedPayload     = fmt.Errorf("%w: malformed payload", ErrValidationFailure)
	ErrMissingRequiredField = fmt.Errorf("%w: missing required field", ErrValidationFailure)
	ErrInvalidField         = fmt.Errorf("%w: invalid field", ErrValidationFailure)
	ErrNoProjectSelected    = fmt.Errorf("%w: no project selected", ErrValidationFailure)
	ErrInvalidState         = fmt.Errorf("%w: invalid state", ErrValidationFailure)
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrMaxBodySizeExceeded  = errors.New("max body size exceeded")
)

func NewMalformedPayloadError(payloadType string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrMalformedPayload,
		Details:    fmt.Sprintf("Malformed %s payload", payloadType),
		Cause:      cause,
		Field:      "payload",
	}
}

func NewMissingRequiredFieldError(fieldName string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrMissingRequiredField,
		Details:    fmt.Sprintf("Missing required field: %s", fieldName),
		Field:      fieldName,
	}
}

func NewInvalidFieldError(fieldName string, reason string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidField,
		Details:    fmt.Sprintf("Invalid field %s: %s", fieldName, reason),
		Field:      fieldName,
	}
}

func NewNoProjectSelectedError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrNoProjectSelected,
		Details:    "Select a project before capturing a photo",
		Field:      "projectId",
	}
}

func NewInvalidStateError(operation, state string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrInvalidState,
		Details:    fmt.Sprintf("Cannot %s while %s", operation, state),
		Field:      "state",
	}
}

func NewUnsupportedMediaTypeError(contentType string, allowedTypes []string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnsupportedMediaType,
		err:        ErrUnsupportedMediaType,
		Details:    fmt.Sprintf("Unsupported media type: %s. Allowed types: %v", contentType, allowedTypes),
		Field:      "content_type",
	}
}

func NewMaxBodySizeExceededError(maxSize int64) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusRequestEntityTooLarge,
		err:        ErrMaxBodySizeExceeded,
		Details:    fmt.Sprintf("Request body size exceeded maximum allowed size of %d bytes", maxSize),
		Field:      "body_size",
	}
}

// IsValidationFailure reports whether err is any kind of input validation error
func IsValidationFailure(err error) bool {
	return errors.Is(err, ErrValidationFailure)
}

func IsMissingRequiredFieldError(err error) bool {
	return errors.Is(err, ErrMissingRequiredField)
}

func IsInvalidFieldError(err error) bool {
	return errors.Is(err, ErrInvalidField)
}

func IsNoProjectSelectedError(err error) bool {
	return errors.Is(err, ErrNoProjectSelected)
}
