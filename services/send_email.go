package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rpupo63/fieldlens-backend/config"
	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/models"
	"github.com/rs/zerolog/log"
)

// ResendEndpoint is the Resend API URL used to send e-mail
const ResendEndpoint = "https://api.resend.com/emails"

// Mailer delivers team invitations
type Mailer interface {
	SendInvite(ctx context.Context, member models.TeamMember, invitedBy string) error
}

// ResendEmailRequest represents the request payload for Resend API
type ResendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Html    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// ResendEmailResponse represents the response from Resend API
type ResendEmailResponse struct {
	ID string `json:"id"`
}

// ResendErrorResponse represents an error response from Resend API
type ResendErrorResponse struct {
	Message string `json:"message"`
}

// ResendMailer sends e-mail through the Resend API
type ResendMailer struct {
	apiKey   string
	from     string
	appURL   string
	endpoint string
	client   *http.Client
}

func NewResendMailer(apiKey, from, appURL string, client *http.Client) *ResendMailer {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ResendMailer{
		apiKey:   apiKey,
		from:     from,
		appURL:   strings.TrimRight(appURL, "/"),
		endpoint: ResendEndpoint,
		client:   client,
	}
}

// NewResendMailerFromConfig returns nil when RESEND_API_KEY is not configured.
// RESEND_FROM_EMAIL is required once a key is present.
func NewResendMailerFromConfig(cfg map[string]string) (*ResendMailer, error) {
	apiKey := config.GetString(cfg, "RESEND_API_KEY", "")
	if apiKey == "" {
		return nil, nil
	}
	fromEmail := config.GetString(cfg, "RESEND_FROM_EMAIL", "")
	if fromEmail == "" {
		return nil, errs.NewConfigError("RESEND_FROM_EMAIL", nil)
	}
	appURL := config.GetString(cfg, "APP_BASE_URL", "http://localhost:3000")
	return NewResendMailer(apiKey, fromEmail, appURL, nil), nil
}

var inviteTemplate = template.Must(template.New("invite").Parse(
	`<p>Hi {{.Name}},</p>
<p>{{.InvitedBy}} invited you to FieldLens as <strong>{{.Role}}</strong>.</p>
<p><a href="{{.Link}}">Open FieldLens</a> to see your projects.</p>`))

func (m *ResendMailer) SendInvite(ctx context.Context, member models.TeamMember, invitedBy string) error {
	var body bytes.Buffer
	err := inviteTemplate.Execute(&body, map[string]string{
		"Name":      member.Name,
		"InvitedBy": invitedBy,
		"Role":      string(member.Role),
		"Link":      m.appURL + "/team",
	})
	if err != nil {
		return fmt.Errorf("failed to render invitation: %w", err)
	}
	return m.SendEmail(ctx, "You have been invited to FieldLens", body.String(), []string{member.Email})
}

// SendEmail sends an HTML e-mail to recipients
func (m *ResendMailer) SendEmail(ctx context.Context, subject, body string, recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}

	payload := ResendEmailRequest{
		From:    m.from,
		To:      recipients,
		Subject: subject,
		Html:    body,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create Resend API request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return errs.NewServiceUnreachableError("resend", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read Resend API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ResendErrorResponse
		if err := json.Unmarshal(bodyBytes, &errorResp); err == nil && errorResp.Message != "" {
			return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, errorResp.Message)
		}
		return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var emailResponse ResendEmailResponse
	if err := json.Unmarshal(bodyBytes, &emailResponse); err != nil {
		log.Warn().Err(err).Msg("Failed to parse Resend email response, but email was sent")
	} else {
		log.Info().Str("emailId", emailResponse.ID).Msg("Successfully sent email via Resend")
	}
	return nil
}
