package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pkk-kandri/kandri-events/internal/model"
	"github.com/pkk-kandri/kandri-events/internal/notify"
)

// sendWhatsApp is the raw delivery endpoint used by the dashboard. When the
// body carries eventId and eventDate a day-before reminder is queued too.
func (s *Server) sendWhatsApp(c *gin.Context) {
	var req SendWhatsAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	nreq := notify.Request{Phone: req.Phone, Message: req.Message}
	if req.EventID != "" && req.EventDate != "" {
		id, err := uuid.Parse(req.EventID)
		if err != nil {
			s.handleError(c, http.StatusBadRequest, "Invalid eventId", err)
			return
		}
		date, err := model.ParseDate(req.EventDate)
		if err != nil {
			s.handleError(c, http.StatusBadRequest, "Invalid eventDate", err)
			return
		}
		nreq.EventID = &id
		nreq.EventDate = &date
	}

	res, err := s.notifier.Notify(context.WithoutCancel(c.Request.Context()), nreq)
	switch {
	case errors.Is(err, notify.ErrMissingRecipient):
		s.handleError(c, http.StatusBadRequest, "Phone number and message are required", err)
	case errors.Is(err, notify.ErrGatewayRejected):
		_ = c.Error(err)
		c.JSON(res.StatusCode, gin.H{
			"error":   "Failed to send WhatsApp message",
			"details": res.Payload,
			"status":  res.StatusCode,
		})
	case err != nil:
		_ = c.Error(err)
		s.logger.Error("whatsapp send failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to send WhatsApp message",
			"details": err.Error(),
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"result":  res.Payload,
			"message": "WhatsApp message sent successfully",
		})
	}
}

func (s *Server) checkReminders(c *gin.Context) {
	summary, err := s.reminders.Check(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		s.logger.Error("reminder check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to check reminders",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"sent_reminders": len(summary.Results),
		"results":        summary.Results,
		"date":           summary.Date,
	})
}
