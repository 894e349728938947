package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pkk-kandri/kandri-events/internal/store"
)

func (s *Server) handleError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
		s.logger.Warn(message, zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": message})
}

// handleStoreError maps store failures to 404 or 500.
func (s *Server) handleStoreError(c *gin.Context, message string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.handleError(c, http.StatusNotFound, "Event not found", err)
		return
	}
	s.handleError(c, http.StatusInternalServerError, message, err)
}

func (s *Server) handleBindError(c *gin.Context, err error) {
	if fields := fieldErrors(err); fields != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": fields})
		return
	}
	s.handleError(c, http.StatusBadRequest, "Invalid input", err)
}
