// Package server exposes the event dashboard API over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/pkk-kandri/kandri-events/internal/auth"
	"github.com/pkk-kandri/kandri-events/internal/gateway"
	"github.com/pkk-kandri/kandri-events/internal/model"
	"github.com/pkk-kandri/kandri-events/internal/notify"
	"github.com/pkk-kandri/kandri-events/internal/reminder"
)

// EventStore is the event persistence used by the handlers.
type EventStore interface {
	Create(ctx context.Context, event *model.Event) error
	List(ctx context.Context) ([]model.Event, error)
	Upcoming(ctx context.Context, today datatypes.Date, limit int) ([]model.Event, error)
	Past(ctx context.Context, today datatypes.Date, limit int) ([]model.Event, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	Update(ctx context.Context, event *model.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReminderLister lists the reminders queued for an event.
type ReminderLister interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Reminder, error)
}

// Notifier sends WhatsApp messages.
type Notifier interface {
	Notify(ctx context.Context, req notify.Request) (*gateway.Result, error)
	Announce(ctx context.Context, event *model.Event, phone string) (*gateway.Result, error)
}

// ReminderChecker runs the due-reminder check.
type ReminderChecker interface {
	Check(ctx context.Context) (*reminder.Summary, error)
	Today() datatypes.Date
}

// Config holds the handler settings taken from the service configuration.
type Config struct {
	CoordinatorPhone string
	CronSecret       string
	CORSOrigins      []string
	Production       bool
}

// Server wires HTTP routes to the stores and the notification pipeline.
type Server struct {
	cfg          Config
	events       EventStore
	reminderList ReminderLister
	notifier     Notifier
	reminders    ReminderChecker
	verifier     *auth.Verifier
	logger       *zap.Logger
}

func New(cfg Config, events EventStore, reminderList ReminderLister, notifier Notifier, reminders ReminderChecker, verifier *auth.Verifier, logger *zap.Logger) *Server {
	registerValidators()
	return &Server{
		cfg:          cfg,
		events:       events,
		reminderList: reminderList,
		notifier:     notifier,
		reminders:    reminders,
		verifier:     verifier,
		logger:       logger,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	if s.cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))
	r.Use(cors.New(s.corsConfig()))

	r.GET("/health", s.health)
	r.GET("/public/events/upcoming", s.publicUpcoming)
	r.GET("/check-reminders", cronGuard(s.cfg.CronSecret), s.checkReminders)

	admin := r.Group("/", s.verifier.Middleware())
	admin.POST("/send-whatsapp", s.sendWhatsApp)

	events := admin.Group("/events")
	events.POST("", s.createEvent)
	events.GET("", s.listEvents)
	events.GET("/overview", s.overview)
	events.GET("/:id", s.getEvent)
	events.PUT("/:id", s.updateEvent)
	events.DELETE("/:id", s.deleteEvent)

	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(s.cfg.CORSOrigins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = s.cfg.CORSOrigins
	}
	return cfg
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
