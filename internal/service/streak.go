package service

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-streak-bot/internal/domain/entities"
	"github.com/aliskhannn/quiz-streak-bot/internal/metrics"
)

// StreakService folds daily reports into user records.
type StreakService struct {
	repo    RecordRepository
	logger  *zap.Logger
	metrics *metrics.Collector
}

func NewStreakService(repo RecordRepository, logger *zap.Logger, m *metrics.Collector) *StreakService {
	return &StreakService{
		repo:    repo,
		logger:  logger,
		metrics: m,
	}
}

// ApplyReport creates or updates the reporting user's record for today and
// returns the stored result. It issues exactly one create or update call.
//
// Two reports from the same user racing each other may both read the old record;
// the later write wins. Nothing here locks.
func (s *StreakService) ApplyReport(
	ctx context.Context,
	report entities.DailyReport,
	today, yesterday civil.Date,
) (*entities.UserRecord, entities.ReportOutcome, error) {
	if err := report.Validate(); err != nil {
		s.metrics.ObserveReport("invalid")
		return nil, "", err
	}

	rec, err := s.repo.FindByUserID(ctx, report.UserID)
	if errors.Is(err, entities.ErrRecordNotFound) {
		return s.create(ctx, report, today)
	}
	if err != nil {
		s.metrics.ObserveReport("failed")
		return nil, "", fmt.Errorf("find record: %w", err)
	}

	outcome, err := rec.ApplyReport(report, today, yesterday)
	if err != nil {
		s.metrics.ObserveReport("invalid")
		return nil, "", fmt.Errorf("apply report for %s: %w", report.UserID, err)
	}

	if err := s.repo.Update(ctx, rec.UserID, rec.Patch()); err != nil {
		s.metrics.ObserveReport("failed")
		return nil, "", fmt.Errorf("update record: %w", err)
	}

	s.metrics.ObserveReport(string(outcome))
	s.logger.Debug("report applied",
		zap.String("user_id", rec.UserID),
		zap.String("outcome", string(outcome)),
		zap.Int("streak_days", rec.StreakDays),
		zap.Stringer("date", today),
	)

	return rec, outcome, nil
}

func (s *StreakService) create(
	ctx context.Context,
	report entities.DailyReport,
	today civil.Date,
) (*entities.UserRecord, entities.ReportOutcome, error) {
	rec := entities.NewUserRecord(report, today)
	if err := s.repo.Create(ctx, rec); err != nil {
		s.metrics.ObserveReport("failed")
		return nil, "", fmt.Errorf("create record: %w", err)
	}

	s.metrics.ObserveReport(string(entities.OutcomeCreated))
	s.logger.Info("record created",
		zap.String("user_id", rec.UserID),
		zap.String("display_name", rec.DisplayName),
		zap.Stringer("date", today),
	)

	return rec, entities.OutcomeCreated, nil
}
