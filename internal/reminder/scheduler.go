// Package reminder sends the day-before reminders that are due today.
package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/pkk-kandri/kandri-events/internal/gateway"
	"github.com/pkk-kandri/kandri-events/internal/message"
	"github.com/pkk-kandri/kandri-events/internal/model"
)

// Store is the persistence the scheduler needs.
type Store interface {
	Due(ctx context.Context, day datatypes.Date) ([]model.Reminder, error)
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
}

// Result reports the dispatch attempt for one reminder.
type Result struct {
	ReminderID uuid.UUID       `json:"reminder_id"`
	EventID    *uuid.UUID      `json:"event_id"`
	Phone      string          `json:"phone"`
	Success    bool            `json:"success"`
	Result     json.RawMessage `json:"result"`
}

// Summary is the outcome of one Check run.
type Summary struct {
	Date    string   `json:"date"`
	Results []Result `json:"results"`
}

// Scheduler selects due reminders and dispatches them once.
type Scheduler struct {
	store  Store
	sender gateway.Sender
	loc    *time.Location
	now    func() time.Time
	cron   *cron.Cron
	logger *zap.Logger
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the wall clock used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a Scheduler whose calendar day is taken in loc.
func New(store Store, sender gateway.Sender, loc *time.Location, logger *zap.Logger, opts ...Option) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		store:  store,
		sender: sender,
		loc:    loc,
		now:    time.Now,
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar day in the scheduler's location.
func (s *Scheduler) Today() datatypes.Date {
	return model.CalendarDate(s.now().In(s.loc))
}

// Check sends every reminder due today that is still unsent.
//
// Each reminder is claimed (marked sent) right before its dispatch, so it is
// attempted at most once whatever the gateway answers. Reminders whose event
// has been deleted are skipped and stay unsent. A reminder that cannot be
// claimed is reported as failed and left for a later run of the same day.
// Only a failure to load the due reminders aborts the run.
//
// Once started the run is not cancelled with ctx: reminders are only picked
// up on their own day, so abandoning the batch would lose them.
func (s *Scheduler) Check(ctx context.Context) (*Summary, error) {
	ctx = context.WithoutCancel(ctx)
	today := s.Today()
	summary := &Summary{Date: model.FormatDate(today), Results: []Result{}}

	due, err := s.store.Due(ctx, today)
	if err != nil {
		return nil, err
	}
	s.logger.Info("checking reminders", zap.String("date", summary.Date), zap.Int("due", len(due)))

	for i := range due {
		r := &due[i]
		if r.Event == nil {
			s.logger.Warn("reminder has no event, skipping", zap.String("reminder_id", r.ID.String()))
			continue
		}

		claimed, err := s.store.Claim(ctx, r.ID)
		if err != nil {
			s.logger.Error("reminder claim failed", zap.String("reminder_id", r.ID.String()), zap.Error(err))
			summary.Results = append(summary.Results, failedResult(r, err))
			continue
		}
		if !claimed {
			s.logger.Info("reminder already claimed", zap.String("reminder_id", r.ID.String()))
			continue
		}

		summary.Results = append(summary.Results, s.dispatch(ctx, r))
	}

	s.logger.Info("reminder check finished",
		zap.String("date", summary.Date),
		zap.Int("sent_reminders", len(summary.Results)),
	)
	return summary, nil
}

func (s *Scheduler) dispatch(ctx context.Context, r *model.Reminder) Result {
	out := Result{
		ReminderID: r.ID,
		EventID:    r.EventID,
		Phone:      r.Phone,
	}

	res, err := s.sender.Send(ctx, r.Phone, message.Render(message.Reminder, r.Event))
	if err != nil {
		s.logger.Warn("reminder dispatch failed", zap.String("reminder_id", r.ID.String()), zap.Error(err))
		return failedResult(r, err)
	}

	out.Success = res.OK
	out.Result = res.Payload
	if !res.OK {
		s.logger.Warn("gateway rejected reminder",
			zap.String("reminder_id", r.ID.String()),
			zap.Int("status", res.StatusCode),
		)
	}
	return out
}

func failedResult(r *model.Reminder, err error) Result {
	payload, _ := json.Marshal(map[string]string{"error": err.Error()})
	return Result{
		ReminderID: r.ID,
		EventID:    r.EventID,
		Phone:      r.Phone,
		Result:     payload,
	}
}

// Start registers the daily check under spec and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, s.runScheduled)
	if err != nil {
		return fmt.Errorf("schedule reminder check: %w", err)
	}
	s.cron.Start()
	s.logger.Info("reminder scheduler started", zap.String("spec", spec), zap.String("location", s.loc.String()))
	return nil
}

// Stop stops the cron loop and waits for a running check to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// runScheduled has no run deadline; each gateway call is bounded by the
// sender's own client timeout.
func (s *Scheduler) runScheduled() {
	if _, err := s.Check(context.Background()); err != nil {
		s.logger.Error("scheduled reminder check failed", zap.Error(err))
	}
}
