package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pkk-kandri/kandri-events/internal/model"
)

const overviewLimit = 3

// createEvent stores the event and announces it to the coordinator. A failed
// announcement is reported in the response but does not undo the insert.
// The insert, announcement and reminder run to completion even if the client
// goes away.
func (s *Server) createEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.handleBindError(c, err)
		return
	}

	var event model.Event
	if err := req.Apply(&event); err != nil {
		s.handleError(c, http.StatusBadRequest, "Invalid date", err)
		return
	}
	ctx := context.WithoutCancel(c.Request.Context())
	if err := s.events.Create(ctx, &event); err != nil {
		s.handleError(c, http.StatusInternalServerError, "Failed to create event", err)
		return
	}

	status := NotificationStatus{Sent: true}
	if _, err := s.notifier.Announce(ctx, &event, s.cfg.CoordinatorPhone); err != nil {
		s.logger.Warn("event announcement failed", zap.String("event_id", event.ID.String()), zap.Error(err))
		status = NotificationStatus{Sent: false, Error: err.Error()}
	}

	c.JSON(http.StatusCreated, gin.H{
		"event":        ToEventResponse(&event),
		"notification": status,
	})
}

func (s *Server) listEvents(c *gin.Context) {
	events, err := s.events.List(c.Request.Context())
	if err != nil {
		s.handleError(c, http.StatusInternalServerError, "Failed to list events", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": ToEventResponses(events)})
}

func (s *Server) overview(c *gin.Context) {
	ctx := c.Request.Context()
	today := s.reminders.Today()

	upcoming, err := s.events.Upcoming(ctx, today, overviewLimit)
	if err != nil {
		s.handleError(c, http.StatusInternalServerError, "Failed to load upcoming events", err)
		return
	}
	past, err := s.events.Past(ctx, today, overviewLimit)
	if err != nil {
		s.handleError(c, http.StatusInternalServerError, "Failed to load past events", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":     model.FormatDate(today),
		"upcoming": ToEventResponses(upcoming),
		"past":     ToEventResponses(past),
	})
}

func (s *Server) publicUpcoming(c *gin.Context) {
	events, err := s.events.Upcoming(c.Request.Context(), s.reminders.Today(), overviewLimit)
	if err != nil {
		s.handleError(c, http.StatusInternalServerError, "Failed to load upcoming events", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": ToEventResponses(events)})
}

func (s *Server) getEvent(c *gin.Context) {
	id, ok := s.eventID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		s.handleStoreError(c, "Failed to load event", err)
		return
	}
	reminders, err := s.reminderList.ListByEvent(ctx, id)
	if err != nil {
		s.handleError(c, http.StatusInternalServerError, "Failed to load reminders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"event":     ToEventResponse(event),
		"reminders": ToReminderResponses(reminders),
	})
}

// updateEvent replaces the five editable fields. Reminders already queued
// for the event keep their original date.
func (s *Server) updateEvent(c *gin.Context) {
	id, ok := s.eventID(c)
	if !ok {
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.handleBindError(c, err)
		return
	}

	event := model.Event{ID: id}
	if err := req.Apply(&event); err != nil {
		s.handleError(c, http.StatusBadRequest, "Invalid date", err)
		return
	}

	ctx := c.Request.Context()
	if err := s.events.Update(ctx, &event); err != nil {
		s.handleStoreError(c, "Failed to update event", err)
		return
	}
	updated, err := s.events.FindByID(ctx, id)
	if err != nil {
		s.handleStoreError(c, "Failed to load event", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": ToEventResponse(updated)})
}

func (s *Server) deleteEvent(c *gin.Context) {
	id, ok := s.eventID(c)
	if !ok {
		return
	}
	if err := s.events.Delete(c.Request.Context(), id); err != nil {
		s.handleStoreError(c, "Failed to delete event", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) eventID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.handleError(c, http.StatusBadRequest, "Invalid event id", err)
		return uuid.Nil, false
	}
	return id, true
}
