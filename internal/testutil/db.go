// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pkk-kandri/kandri-events/internal/database"
	"github.com/pkk-kandri/kandri-events/internal/model"
)

// NewDB opens a private in-memory SQLite database with the schema migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1", name, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite memory: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Date parses a YYYY-MM-DD literal and fails the test on error.
func Date(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return d
}

// SeedEvent inserts an event on the given YYYY-MM-DD date.
func SeedEvent(t *testing.T, db *gorm.DB, title, date string) *model.Event {
	t.Helper()
	event := &model.Event{
		Title:       title,
		Date:        model.CalendarDate(Date(t, date)),
		Time:        "09:00",
		Location:    "Balai RW",
		Description: "Agenda " + title,
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("seed event %q: %v", title, err)
	}
	return event
}
