package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pkk-kandri/kandri-events/internal/model"
)

// ReminderStore persists day-before reminders.
type ReminderStore struct {
	db *gorm.DB
}

func NewReminderStore(db *gorm.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

func (s *ReminderStore) Create(ctx context.Context, reminder *model.Reminder) error {
	if err := s.db.WithContext(ctx).Create(reminder).Error; err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

// Due returns unsent reminders scheduled for day, with their event preloaded.
// Event is nil when the linked event no longer exists.
func (s *ReminderStore) Due(ctx context.Context, day datatypes.Date) ([]model.Reminder, error) {
	var reminders []model.Reminder
	if err := s.db.WithContext(ctx).Preload("Event").
		Where("reminder_date = ? AND sent = ?", day, false).
		Order("created_at ASC").
		Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	return reminders, nil
}

// Claim flips sent to true only if it is still false. It reports whether
// this caller won the claim; a concurrent run that already claimed the
// reminder gets false.
func (s *ReminderStore) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("id = ? AND sent = ?", id, false).
		Update("sent", true)
	if res.Error != nil {
		return false, fmt.Errorf("mark reminder sent: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *ReminderStore) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Reminder, error) {
	var reminders []model.Reminder
	if err := s.db.WithContext(ctx).Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}
