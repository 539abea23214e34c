package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedMailer(t *testing.T) *ResendMailer {
	t.Helper()
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewResendMailer("re_test", "FieldLens <noreply@fieldlens.example>", "https://app.fieldlens.example/", client)
}

func TestResendMailer_SendInvite(t *testing.T) {
	mailer := newMockedMailer(t)

	var captured ResendEmailRequest
	httpmock.RegisterResponder(http.MethodPost, ResendEndpoint,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer re_test", req.Header.Get("Authorization"))
			if err := json.NewDecoder(req.Body).Decode(&captured); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, ""), nil
			}
			return httpmock.NewJsonResponse(http.StatusOK, ResendEmailResponse{ID: "email-1"})
		})

	member := models.TeamMember{Name: "Lena", Email: "lena@fieldlens.example", Role: models.RoleViewer}
	require.NoError(t, mailer.SendInvite(context.Background(), member, "John Doe"))

	assert.Equal(t, 1, httpmock.GetTotalCallCount())
	assert.Equal(t, []string{"lena@fieldlens.example"}, captured.To)
	assert.Contains(t, captured.Html, "John Doe")
	assert.Contains(t, captured.Html, "viewer")
	assert.Contains(t, captured.Html, "https://app.fieldlens.example/team")
}

func TestResendMailer_APIError(t *testing.T) {
	mailer := newMockedMailer(t)

	httpmock.RegisterResponder(http.MethodPost, ResendEndpoint,
		httpmock.NewStringResponder(http.StatusUnprocessableEntity, `{"message":"invalid from address"}`))

	err := mailer.SendEmail(context.Background(), "s", "b", []string{"a@b.example"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid from address")
	assert.Contains(t, err.Error(), "422")
}

func TestResendMailer_NoRecipients(t *testing.T) {
	mailer := newMockedMailer(t)
	assert.Error(t, mailer.SendEmail(context.Background(), "s", "b", nil))
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestNewResendMailerFromConfig(t *testing.T) {
	mailer, err := NewResendMailerFromConfig(map[string]string{})
	require.NoError(t, err)
	assert.Nil(t, mailer)

	_, err = NewResendMailerFromConfig(map[string]string{"RESEND_API_KEY": "k"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConfigMissing)

	mailer, err = NewResendMailerFromConfig(map[string]string{"RESEND_API_KEY": "k", "RESEND_FROM_EMAIL": "a@b.example"})
	require.NoError(t, err)
	assert.NotNil(t, mailer)
}
