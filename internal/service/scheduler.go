package service

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PassRunner runs one leaderboard pass.
type PassRunner interface {
	RunPass(ctx context.Context, chatID int64, today civil.Date) (*PassResult, error)
}

// Scheduler triggers the daily ranking pass on a cron spec evaluated in the calendar's zone.
type Scheduler struct {
	runner   PassRunner
	calendar *Calendar
	chatID   int64
	spec     string
	logger   *zap.Logger
}

func NewScheduler(runner PassRunner, calendar *Calendar, chatID int64, spec string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		calendar: calendar,
		chatID:   chatID,
		spec:     spec,
		logger:   logger,
	}
}

// Start blocks until ctx is cancelled. It fails fast on an invalid spec.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.calendar.Location()))

	_, err := c.AddFunc(s.spec, func() {
		s.logger.Info("cron triggered: running ranking pass")
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", s.spec, err)
	}

	c.Start()
	s.logger.Info("ranking scheduler started",
		zap.String("schedule", s.spec),
		zap.String("timezone", s.calendar.Location().String()),
		zap.Int64("chat_id", s.chatID),
	)

	<-ctx.Done()

	// wait for a pass that is already running
	<-c.Stop().Done()
	s.logger.Info("ranking scheduler stopped")

	return nil
}

// RunOnce runs a pass for the current day. Failures are logged, never fatal.
func (s *Scheduler) RunOnce(ctx context.Context) {
	today, _ := s.calendar.Days()

	result, err := s.runner.RunPass(ctx, s.chatID, today)
	if err != nil {
		fields := []zap.Field{
			zap.Int64("chat_id", s.chatID),
			zap.Stringer("date", today),
			zap.Error(err),
		}
		if result != nil {
			fields = append(fields, zap.Int("resets_failed", result.ResetsFailed))
		}
		s.logger.Error("ranking pass failed", fields...)
		return
	}

	s.logger.Info("ranking pass sent",
		zap.Stringer("date", today),
		zap.Int("ranked", result.Ranked),
		zap.Int("resets", result.ResetsIssued),
		zap.Bool("delivered", result.Delivered),
	)
}
