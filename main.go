package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pkk-kandri/kandri-events/internal/auth"
	"github.com/pkk-kandri/kandri-events/internal/config"
	"github.com/pkk-kandri/kandri-events/internal/database"
	"github.com/pkk-kandri/kandri-events/internal/gateway"
	"github.com/pkk-kandri/kandri-events/internal/logging"
	"github.com/pkk-kandri/kandri-events/internal/notify"
	"github.com/pkk-kandri/kandri-events/internal/reminder"
	"github.com/pkk-kandri/kandri-events/internal/server"
	"github.com/pkk-kandri/kandri-events/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[kandri-events] %v", err)
	}

	logger, err := logging.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("[kandri-events] logger init failed: %v", err)
	}
	defer logger.Sync()

	db, err := database.New(cfg.DatabaseURL, cfg.SQLitePath, logger.Named("database"))
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	sender := newSender(cfg)
	events := store.NewEventStore(db)
	reminders := store.NewReminderStore(db)

	dispatcher := notify.New(sender, reminders, logger.Named("notify"))
	scheduler := reminder.New(reminders, sender, cfg.LocalTimezone, logger.Named("reminder"))
	if err := scheduler.Start(cfg.ReminderCron); err != nil {
		logger.Fatal("scheduler start", zap.Error(err))
	}

	api := server.New(server.Config{
		CoordinatorPhone: cfg.CoordinatorPhone,
		CronSecret:       cfg.CronSecret,
		CORSOrigins:      cfg.CORSOrigins,
		Production:       cfg.IsProduction(),
	}, events, reminders, dispatcher, scheduler, auth.NewVerifier(cfg.AuthJWTSecret, cfg.AuthJWTAudience), logger.Named("http"))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("gateway", cfg.GatewayProvider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	waitForShutdown(srv, scheduler, logger)
}

func newSender(cfg *config.Config) gateway.Sender {
	if cfg.GatewayProvider == config.GatewayTwilio {
		return gateway.NewTwilio(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber)
	}
	return gateway.NewFonnte(cfg.FonnteAPIURL, cfg.FonnteToken, cfg.GatewayTimeout)
}

func waitForShutdown(srv *http.Server, scheduler *reminder.Scheduler, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	scheduler.Stop()
}
