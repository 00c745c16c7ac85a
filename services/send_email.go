package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rpupo63/portfolio-admin-backend/config"
	"github.com/rpupo63/portfolio-admin-backend/errs"
	"github.com/rs/zerolog/log"
)

const resendEndpoint = "https://api.resend.com/emails"

// MailSender delivers a rendered mail.
type MailSender interface {
	Send(ctx context.Context, to []string, subject, html string) error
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

// ResendMailer sends mail through the Resend HTTP API.
type ResendMailer struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{
		apiKey:   apiKey,
		from:     from,
		endpoint: resendEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// NewMailSender picks the sender from MAIL_DRIVER. "resend" needs
// RESEND_API_KEY and RESEND_FROM_EMAIL; "log" only writes mails to the log.
func NewMailSender(c map[string]string) (MailSender, error) {
	switch driver := config.GetString(c, "MAIL_DRIVER", "resend"); driver {
	case "log":
		return LogMailer{}, nil
	case "resend":
		apiKey := config.GetString(c, "RESEND_API_KEY", "")
		if apiKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
		}
		from := config.GetString(c, "RESEND_FROM_EMAIL", "")
		if from == "" {
			return nil, fmt.Errorf("RESEND_FROM_EMAIL environment variable is required")
		}
		return NewResendMailer(apiKey, from), nil
	default:
		return nil, fmt.Errorf("unsupported MAIL_DRIVER %q", driver)
	}
}

func (m *ResendMailer) Send(ctx context.Context, to []string, subject, html string) error {
	if len(to) == 0 {
		return errs.NewMailDeliveryError("at least one recipient is required", nil)
	}

	jsonPayload, err := json.Marshal(ResendEmailRequest{
		From:    m.from,
		To:      to,
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create Resend API request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return errs.NewMailDeliveryError("failed to send request to Resend API", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewMailDeliveryError("failed to read Resend API response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errorResp ResendErrorResponse
		if err := json.Unmarshal(bodyBytes, &errorResp); err == nil && errorResp.Message != "" {
			return errs.NewMailDeliveryError(fmt.Sprintf("resend API error (status %d): %s", resp.StatusCode, errorResp.Message), nil)
		}
		return errs.NewMailDeliveryError(fmt.Sprintf("resend API error (status %d): %s", resp.StatusCode, string(bodyBytes)), nil)
	}

	var emailResponse ResendEmailResponse
	if err := json.Unmarshal(bodyBytes, &emailResponse); err != nil {
		log.Warn().Err(err).Msg("Failed to parse Resend email response, but email was sent")
	} else {
		log.Info().Str("emailId", emailResponse.ID).Str("to", strings.Join(to, ",")).Msg("Successfully sent email via Resend")
	}
	return nil
}

// LogMailer writes mails to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to []string, subject, html string) error {
	log.Info().Strs("to", to).Str("subject", subject).Int("bodyBytes", len(html)).Msg("Mail (log driver)")
	return nil
}
