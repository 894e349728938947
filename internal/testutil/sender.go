package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/pkk-kandri/kandri-events/internal/gateway"
)

// SentMessage is one message captured by Sender.
type SentMessage struct {
	Target  string
	Message string
}

// Sender is an in-memory gateway.Sender. By default every send succeeds with
// a Fonnte-like acknowledgement; set Status to simulate a rejection or Err to
// simulate an unreachable provider.
type Sender struct {
	mu      sync.Mutex
	Status  int
	Payload string
	Err     error
	Sent    []SentMessage
}

func (s *Sender) Send(_ context.Context, target, message string) (*gateway.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Sent = append(s.Sent, SentMessage{Target: target, Message: message})
	if s.Err != nil {
		return nil, s.Err
	}

	status := s.Status
	if status == 0 {
		status = http.StatusOK
	}
	payload := s.Payload
	if payload == "" {
		payload = `{"status":true,"detail":"success! message in queue"}`
	}
	return &gateway.Result{
		OK:         status >= 200 && status < 300,
		StatusCode: status,
		Payload:    json.RawMessage(payload),
	}, nil
}

// Messages returns a copy of everything sent so far.
func (s *Sender) Messages() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentMessage(nil), s.Sent...)
}
