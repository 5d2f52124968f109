package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultResendURL   = "https://api.resend.com/emails"
	defaultFromEmail   = "noreply@footprint.co.il"
	defaultSendTimeout = 15 * time.Second
)

// ResendConfig holds the Resend API settings.
type ResendConfig struct {
	APIKey    string
	FromEmail string
	BaseURL   string
}

// Resend sends mail through the Resend HTTP API.
type Resend struct {
	apiKey     string
	fromEmail  string
	baseURL    string
	httpClient *http.Client
}

// ResendOption customises the client.
type ResendOption func(*Resend)

// WithResendHTTPClient injects the HTTP client, mainly for tests.
func WithResendHTTPClient(client *http.Client) ResendOption {
	return func(r *Resend) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// NewResend builds the Resend sender.
func NewResend(cfg ResendConfig, opts ...ResendOption) (*Resend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("email: resend api key is required")
	}
	from := cfg.FromEmail
	if from == "" {
		from = defaultFromEmail
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultResendURL
	}
	sender := &Resend{
		apiKey:     cfg.APIKey,
		fromEmail:  from,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultSendTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(sender)
		}
	}
	return sender, nil
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (r *Resend) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("email: recipient is required")
	}
	payload, err := json.Marshal(resendPayload{
		From:    r.fromEmail,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("email: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("email: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email: send failed with status %d: %s", resp.StatusCode, body)
	}
	return nil
}
