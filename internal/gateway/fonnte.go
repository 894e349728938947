package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fonnte sends WhatsApp messages through the Fonnte HTTP API.
type Fonnte struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewFonnte creates a Fonnte sender posting to endpoint with the device token.
func NewFonnte(endpoint, token string, timeout time.Duration) *Fonnte {
	return &Fonnte{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

type fonnteRequest struct {
	Target  string `json:"target"`
	Message string `json:"message"`
}

// Send posts {target, message} and returns the provider's reply.
func (f *Fonnte) Send(ctx context.Context, target, message string) (*Result, error) {
	body, err := json.Marshal(fonnteRequest{Target: target, Message: message})
	if err != nil {
		return nil, fmt.Errorf("fonnte encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fonnte build request: %w", err)
	}
	req.Header.Set("Authorization", f.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fonnte send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fonnte read response: %w", err)
	}

	return &Result{
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
		Payload:    payloadOf(raw),
	}, nil
}
