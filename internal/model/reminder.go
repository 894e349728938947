package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Reminder is a one-time WhatsApp notification sent the day before an event.
type Reminder struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	EventID      *uuid.UUID     `gorm:"type:uuid;index"`
	Event        *Event         `gorm:"foreignKey:EventID;constraint:OnDelete:SET NULL"`
	ReminderDate datatypes.Date `gorm:"not null;index:idx_reminders_due,priority:1"`
	Phone        string         `gorm:"size:32;not null"`
	Sent         bool           `gorm:"not null;default:false;index:idx_reminders_due,priority:2"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
}

// TableName pins the table name shared with the hosted dashboard.
func (Reminder) TableName() string {
	return "reminders"
}

// BeforeCreate assigns an ID when the caller did not provide one.
func (r *Reminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// DayBefore returns the reminder date for an event held on eventDate.
func DayBefore(eventDate datatypes.Date) datatypes.Date {
	return CalendarDate(time.Time(eventDate).AddDate(0, 0, -1))
}
