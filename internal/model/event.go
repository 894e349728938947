package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Event is a scheduled community activity.
type Event struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Title       string         `gorm:"size:255;not null"`
	Date        datatypes.Date `gorm:"not null;index"`
	Time        string         `gorm:"size:100;not null"`
	Location    string         `gorm:"size:255;not null"`
	Description string         `gorm:"type:text;not null"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
}

// TableName pins the table name shared with the hosted dashboard.
func (Event) TableName() string {
	return "events"
}

// BeforeCreate assigns an ID when the caller did not provide one.
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Day returns the event date as a time.Time at midnight UTC.
func (e *Event) Day() time.Time {
	return time.Time(e.Date)
}

// CalendarDate truncates t to its calendar day in t's own location and
// re-anchors it at midnight UTC, the form every stored date uses.
func CalendarDate(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// ParseDate parses a YYYY-MM-DD string into a stored calendar date.
func ParseDate(value string) (datatypes.Date, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return datatypes.Date{}, err
	}
	return CalendarDate(t), nil
}

// FormatDate renders a stored calendar date as YYYY-MM-DD.
func FormatDate(d datatypes.Date) string {
	return time.Time(d).UTC().Format(DateLayout)
}
