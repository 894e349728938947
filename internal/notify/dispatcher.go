// Package notify sends event notifications and schedules the day-before reminder.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/pkk-kandri/kandri-events/internal/gateway"
	"github.com/pkk-kandri/kandri-events/internal/message"
	"github.com/pkk-kandri/kandri-events/internal/model"
)

var (
	// ErrMissingRecipient is returned when a request lacks a phone or a message.
	ErrMissingRecipient = errors.New("phone number and message are required")
	// ErrGatewayRejected is returned when the gateway answered with a failure.
	ErrGatewayRejected = errors.New("gateway rejected message")
)

// ReminderCreator persists reminders.
type ReminderCreator interface {
	Create(ctx context.Context, reminder *model.Reminder) error
}

// Request is a single outbound message. EventID and EventDate are optional;
// when both are set a successful send schedules the day-before reminder.
type Request struct {
	Phone     string
	Message   string
	EventID   *uuid.UUID
	EventDate *datatypes.Date
}

// Dispatcher delivers messages and enqueues reminders.
type Dispatcher struct {
	sender    gateway.Sender
	reminders ReminderCreator
	logger    *zap.Logger
}

// New creates a Dispatcher.
func New(sender gateway.Sender, reminders ReminderCreator, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender:    sender,
		reminders: reminders,
		logger:    logger,
	}
}

// Notify sends req.Message to req.Phone. A gateway failure returns the
// gateway result together with ErrGatewayRejected. On success, and only
// when the request names an event and its date, one reminder is stored for
// the day before; failing to store it is logged and does not fail Notify.
func (d *Dispatcher) Notify(ctx context.Context, req Request) (*gateway.Result, error) {
	phone := strings.TrimSpace(req.Phone)
	if phone == "" || strings.TrimSpace(req.Message) == "" {
		return nil, ErrMissingRecipient
	}

	d.logger.Info("sending whatsapp message",
		zap.String("phone", phone),
		zap.Int("message_length", len(req.Message)),
		zap.Stringp("event_id", eventIDString(req.EventID)),
	)

	res, err := d.sender.Send(ctx, phone, req.Message)
	if err != nil {
		return nil, fmt.Errorf("send whatsapp message: %w", err)
	}
	if !res.OK {
		d.logger.Warn("gateway rejected message",
			zap.Int("status", res.StatusCode),
			zap.ByteString("response", res.Payload),
		)
		return res, ErrGatewayRejected
	}

	if req.EventID != nil && req.EventDate != nil {
		d.scheduleReminder(ctx, *req.EventID, *req.EventDate, phone)
	}
	return res, nil
}

// Announce renders the announcement for event and sends it to phone.
func (d *Dispatcher) Announce(ctx context.Context, event *model.Event, phone string) (*gateway.Result, error) {
	id := event.ID
	date := event.Date
	return d.Notify(ctx, Request{
		Phone:     phone,
		Message:   message.Render(message.Announcement, event),
		EventID:   &id,
		EventDate: &date,
	})
}

func (d *Dispatcher) scheduleReminder(ctx context.Context, eventID uuid.UUID, eventDate datatypes.Date, phone string) {
	reminder := &model.Reminder{
		EventID:      &eventID,
		ReminderDate: model.DayBefore(eventDate),
		Phone:        phone,
	}
	if err := d.reminders.Create(ctx, reminder); err != nil {
		d.logger.Warn("reminder creation failed", zap.String("event_id", eventID.String()), zap.Error(err))
		return
	}
	d.logger.Info("reminder scheduled",
		zap.String("event_id", eventID.String()),
		zap.String("reminder_date", model.FormatDate(reminder.ReminderDate)),
	)
}

func eventIDString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
