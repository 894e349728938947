package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	twilio "github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// Twilio sends WhatsApp messages through Twilio's Messages API.
type Twilio struct {
	api          messageCreator
	fromWhatsApp string
}

// NewTwilio creates a Twilio sender bound to the configured WhatsApp sender number.
func NewTwilio(accountSID, authToken, fromWhatsApp string) *Twilio {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken})
	return &Twilio{
		api:          client.Api,
		fromWhatsApp: fromWhatsApp,
	}
}

// Send creates a WhatsApp message. A Twilio API error reply becomes a
// failed Result carrying the error document; transport failures are errors.
func (t *Twilio) Send(_ context.Context, target, message string) (*Result, error) {
	if t.api == nil {
		return nil, fmt.Errorf("twilio client not initialised")
	}

	sender := normalizeWhatsAppAddress(t.fromWhatsApp)
	if sender == "" {
		return nil, fmt.Errorf("twilio sender WhatsApp number is not configured")
	}

	recipient := normalizeWhatsAppAddress(target)
	if recipient == "" {
		return nil, fmt.Errorf("recipient number missing or invalid")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(sender)
	params.SetBody(message)

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) {
			payload, _ := json.Marshal(restErr)
			status := restErr.Status
			if status == 0 {
				status = http.StatusBadGateway
			}
			return &Result{OK: false, StatusCode: status, Payload: payload}, nil
		}
		return nil, fmt.Errorf("twilio send message error: %w", err)
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("twilio encode response: %w", err)
	}
	return &Result{OK: true, StatusCode: http.StatusCreated, Payload: payload}, nil
}

func normalizeWhatsAppAddress(number string) string {
	trimmed := strings.TrimSpace(number)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "whatsapp:") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "+") {
		return "whatsapp:" + trimmed
	}
	return "whatsapp:+" + trimmed
}
