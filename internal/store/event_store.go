package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pkk-kandri/kandri-events/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// EventStore handles CRUD for events.
type EventStore struct {
	db *gorm.DB
}

func NewEventStore(db *gorm.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) Create(ctx context.Context, event *model.Event) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// List returns every event, newest date first.
func (s *EventStore) List(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := s.db.WithContext(ctx).Order("date DESC, created_at DESC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Upcoming returns up to limit events held on or after today, soonest first.
func (s *EventStore) Upcoming(ctx context.Context, today datatypes.Date, limit int) ([]model.Event, error) {
	var events []model.Event
	if err := s.db.WithContext(ctx).Where("date >= ?", today).
		Order("date ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return events, nil
}

// Past returns up to limit events held before today, most recent first.
func (s *EventStore) Past(ctx context.Context, today datatypes.Date, limit int) ([]model.Event, error) {
	var events []model.Event
	if err := s.db.WithContext(ctx).Where("date < ?", today).
		Order("date DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list past events: %w", err)
	}
	return events, nil
}

func (s *EventStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var event model.Event
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return &event, nil
}

// Update overwrites the editable fields of an existing event.
func (s *EventStore) Update(ctx context.Context, event *model.Event) error {
	res := s.db.WithContext(ctx).Model(&model.Event{}).Where("id = ?", event.ID).
		Updates(map[string]interface{}{
			"title":       event.Title,
			"date":        event.Date,
			"time":        event.Time,
			"location":    event.Location,
			"description": event.Description,
		})
	if res.Error != nil {
		return fmt.Errorf("update event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an event permanently. Reminders keep a NULL event link.
func (s *EventStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Event{})
	if res.Error != nil {
		return fmt.Errorf("delete event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
