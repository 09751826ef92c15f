package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SMSGateway sends messages through a JSON-over-HTTP SMS provider.
type SMSGateway struct {
	url      string
	apiKey   string
	senderID string
	client   *http.Client
}

// NewSMSGateway creates a gateway client for the given endpoint.
func NewSMSGateway(url, apiKey, senderID string) *SMSGateway {
	return &SMSGateway{
		url:      url,
		apiKey:   apiKey,
		senderID: senderID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type smsPayload struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Message string `json:"message"`
}

// Send delivers a message to the phone number. Non-2xx responses are errors.
func (g *SMSGateway) Send(ctx context.Context, to, message string) error {
	body, err := json.Marshal(smsPayload{
		To:      to,
		From:    g.senderID,
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	return nil
}
