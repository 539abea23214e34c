package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestNew_DuplicateRegistrationFails(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := New(registry)
	require.NoError(t, err)

	_, err = New(registry)
	assert.Error(t, err)
}

func TestObserveCall(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveCall("photo", "create", 5*time.Millisecond, nil)
	m.ObserveCall("photo", "create", 5*time.Millisecond, errs.NewMissingRequiredFieldError("url"))
	m.ObserveCall("photo", "getById", time.Millisecond, errs.NewNotFound("photo"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.serviceCallsTotal.WithLabelValues("photo", "create", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.serviceCallsTotal.WithLabelValues("photo", "create", "validation")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.serviceCallsTotal.WithLabelValues("photo", "getById", "not_found")))
}

func TestResult(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "success"},
		{"not found", errs.NewNotFound("project"), "not_found"},
		{"validation", errs.NewNoProjectSelectedError(), "validation"},
		{"cancelled", errs.NewCancelledError("op", context.Canceled), "cancelled"},
		{"device", errs.NewDeviceUnavailableError("synthetic", nil), "device_unavailable"},
		{"unreachable", errs.NewServiceUnreachableError("s3", nil), "unreachable"},
		{"other", errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Result(tt.err))
		})
	}
}

func TestGaugesAndHandler(t *testing.T) {
	m := newTestMetrics(t)

	m.SetCaptureSessions(3)
	m.SetAnnotationDrafts(2)
	m.RecordCapture("open", nil)
	m.RecordReport("summary", "csv")
	m.RecordHTTPRequest(http.MethodGet, "/projects", http.StatusOK, 10*time.Millisecond)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.captureSessionsActive))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.annotationDraftsActive))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "fieldlens_capture_sessions_active 3")
	assert.Contains(t, body, `fieldlens_http_requests_total{method="GET",route="/projects",status_code="200"} 1`)
	assert.Contains(t, body, `fieldlens_reports_generated_total{format="csv",type="summary"} 1`)
}
