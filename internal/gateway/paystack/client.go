package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.paystack.co"

// Client talks to the Paystack transaction API. All calls carry a bounded
// timeout through the injected http.Client.
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(secretKey, baseURL string, timeout time.Duration, l *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		secretKey:  secretKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     l,
	}
}

type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type VerifyResult struct {
	Status  string
	Success bool
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeTransaction starts a card payment. The amount is in the
// gateway's minor currency unit (kobo) and the order reference is the
// correlation key echoed back in verification and webhooks.
func (c *Client) InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference, callbackURL string) (*InitializeResult, error) {
	body, err := json.Marshal(map[string]any{
		"email":        email,
		"amount":       amountMinor,
		"reference":    reference,
		"callback_url": callbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build initialize request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Paystack initialize call failed", zap.String("reference", reference), zap.Error(err))
		return nil, fmt.Errorf("paystack initialize call failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode initialize response: %w", err)
	}
	if !envelope.Status {
		c.logger.Warn("Paystack rejected transaction initialize",
			zap.String("reference", reference),
			zap.String("message", envelope.Message))
		return nil, fmt.Errorf("paystack initialize rejected: %s", envelope.Message)
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode initialize data: %w", err)
	}

	return &InitializeResult{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        reference,
	}, nil
}

// VerifyTransaction queries the gateway for the outcome of a transaction.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Paystack verify call failed", zap.String("reference", reference), zap.Error(err))
		return nil, fmt.Errorf("paystack verify call failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}

	var data struct {
		Status string `json:"status"`
	}
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode verify data: %w", err)
		}
	}

	return &VerifyResult{
		Status:  data.Status,
		Success: envelope.Status && data.Status == "success",
	}, nil
}
