// Package gateway delivers text messages to phone numbers through an
// external WhatsApp provider.
package gateway

import (
	"context"
	"encoding/json"
)

// Sender sends one text message to one phone number.
//
// A returned error means the provider could not be reached or its reply
// could not be read. A reply that the provider marks as a failure is not an
// error: it comes back as a Result with OK set to false.
type Sender interface {
	Send(ctx context.Context, target, message string) (*Result, error)
}

// Result is the provider's acknowledgement for a single send.
type Result struct {
	OK         bool
	StatusCode int
	// Payload is the provider reply, passed through without interpretation.
	Payload json.RawMessage
}

// payloadOf keeps body as-is when it is JSON and wraps it as a JSON string otherwise.
func payloadOf(body []byte) json.RawMessage {
	if len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
