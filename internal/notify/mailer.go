package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const DefaultResendBaseURL = "https://api.resend.com"

// Mailer is the notification sink. Failures are logged by callers, never
// surfaced into the workflow that triggered the notification.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type resendMailer struct {
	apiKey     string
	sender     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewResendMailer(apiKey, sender, baseURL string, l *zap.Logger) Mailer {
	if baseURL == "" {
		baseURL = DefaultResendBaseURL
	}
	return &resendMailer{
		apiKey:     apiKey,
		sender:     sender,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     l,
	}
}

func (m *resendMailer) Send(ctx context.Context, to, subject, html string) error {
	if m.apiKey == "" {
		m.logger.Warn("Resend API key not configured, skipping email", zap.String("subject", subject))
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"from":    m.sender,
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("email send returned status %d: %s", resp.StatusCode, string(respBody))
	}

	m.logger.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
