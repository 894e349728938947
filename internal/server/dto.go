package server

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"

	"github.com/pkk-kandri/kandri-events/internal/model"
)

var registerOnce sync.Once

// registerValidators teaches gin's validator the custom tags used below and
// makes field errors report JSON names.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(model.DateLayout, fl.Field().String())
			return err == nil
		})
	})
}

// EventRequest is the body of create and update calls.
type EventRequest struct {
	Title       string `json:"title" binding:"required,notblank,max=255"`
	Date        string `json:"date" binding:"required,calendardate"`
	Time        string `json:"time" binding:"required,notblank,max=100"`
	Location    string `json:"location" binding:"required,notblank,max=255"`
	Description string `json:"description" binding:"required,notblank"`
}

// Apply copies the request onto event.
func (r EventRequest) Apply(event *model.Event) error {
	date, err := model.ParseDate(r.Date)
	if err != nil {
		return err
	}
	event.Title = strings.TrimSpace(r.Title)
	event.Date = date
	event.Time = strings.TrimSpace(r.Time)
	event.Location = strings.TrimSpace(r.Location)
	event.Description = r.Description
	return nil
}

// EventResponse is the JSON form of an event.
type EventResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToEventResponse(e *model.Event) EventResponse {
	return EventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Date:        model.FormatDate(e.Date),
		Time:        e.Time,
		Location:    e.Location,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func ToEventResponses(events []model.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for i := range events {
		out = append(out, ToEventResponse(&events[i]))
	}
	return out
}

// ReminderResponse is the JSON form of a queued reminder.
type ReminderResponse struct {
	ID           uuid.UUID `json:"id"`
	ReminderDate string    `json:"reminder_date"`
	Phone        string    `json:"phone"`
	Sent         bool      `json:"sent"`
	CreatedAt    time.Time `json:"created_at"`
}

func ToReminderResponses(reminders []model.Reminder) []ReminderResponse {
	out := make([]ReminderResponse, 0, len(reminders))
	for _, r := range reminders {
		out = append(out, ReminderResponse{
			ID:           r.ID,
			ReminderDate: model.FormatDate(r.ReminderDate),
			Phone:        r.Phone,
			Sent:         r.Sent,
			CreatedAt:    r.CreatedAt,
		})
	}
	return out
}

// NotificationStatus reports the announcement outcome of a create call.
type NotificationStatus struct {
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

// SendWhatsAppRequest is the body of POST /send-whatsapp.
type SendWhatsAppRequest struct {
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	EventID   string `json:"eventId"`
	EventDate string `json:"eventDate"`
}

// fieldErrors maps validator failures to one message per JSON field.
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "calendardate":
		return "must be a date in YYYY-MM-DD format"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
