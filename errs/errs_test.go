package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		err    *ApiErr
		status int
		is     error
	}{
		{"not found", NewNotFound("photo"), http.StatusNotFound, ErrNotFound},
		{"missing field", NewMissingRequiredFieldError("name"), http.StatusBadRequest, ErrValidationFailure},
		{"invalid field", NewInvalidFieldError("role", "unknown"), http.StatusBadRequest, ErrValidationFailure},
		{"no project", NewNoProjectSelectedError(), http.StatusBadRequest, ErrValidationFailure},
		{"invalid state", NewInvalidStateError("capture", "idle"), http.StatusConflict, ErrValidationFailure},
		{"device busy", NewDeviceUnavailableError("synthetic", ErrDeviceBusy), http.StatusServiceUnavailable, ErrDeviceUnavailable},
		{"permission", NewDeviceUnavailableError("synthetic", ErrPermissionDenied), http.StatusServiceUnavailable, ErrPermissionDenied},
		{"cancelled", NewCancelledError("create photo", context.Canceled), http.StatusRequestTimeout, ErrClientDisconnected},
		{"deadline", NewCancelledError("create photo", context.DeadlineExceeded), http.StatusRequestTimeout, ErrContextDeadline},
		{"unreachable", NewServiceUnreachableError("resend", errors.New("dial tcp")), http.StatusBadGateway, ErrServiceUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.ErrorIs(t, tt.err, tt.is)

			wrapped := fmt.Errorf("handler: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.is)
		})
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFound("project")))
	assert.True(t, IsValidationFailure(NewNoProjectSelectedError()))
	assert.True(t, IsNoProjectSelectedError(NewNoProjectSelectedError()))
	assert.False(t, IsValidationFailure(NewNotFound("project")))
	assert.True(t, IsDeviceUnavailable(NewDeviceUnavailableError("none", nil)))
	assert.True(t, IsCancelled(NewCancelledError("x", context.Canceled)))
	assert.True(t, IsCancelled(context.DeadlineExceeded))
	assert.False(t, IsCancelled(NewNotFound("project")))
	assert.True(t, IsInternal(NewInternalErrorWithCause("encode upload", nil)))
}

func TestApiErr_Messages(t *testing.T) {
	err := NewInvalidFieldError("email", "not an address")
	assert.Equal(t, "validation failure: invalid field: Invalid field email: not an address", err.Error())
	assert.Equal(t, "email", err.Field)

	inner := NewServiceUnreachableError("s3", errors.New("connection reset"))
	outer := NewInternalErrorWithCause("store photo", inner)
	assert.Equal(t,
		"internal server error: store photo -> service unreachable: Service s3 is unreachable -> connection reset",
		outer.GetFullError())
}

func TestNewDatabaseError(t *testing.T) {
	assert.True(t, IsAlreadyExists(NewDatabaseError("create", "project", errors.New("UNIQUE constraint failed: projects.id"))))
	assert.True(t, IsNotFound(NewDatabaseError("find", "project", errors.New("record not found"))))

	var apiErr *ApiErr
	err := NewDatabaseError("find", "project", errors.New("syntax error"))
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.ErrorIs(t, err, ErrDatabaseQuery)

	original := NewNotFound("photo")
	assert.Same(t, original, NewDatabaseError("find", "photo", original))
}
