package service_test

import (
	"context"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-streak-bot/internal/domain/entities"
	"github.com/aliskhannn/quiz-streak-bot/internal/service"
)

var (
	today     = civil.Date{Year: 2026, Month: 5, Day: 20}
	yesterday = today.AddDays(-1)
)

func newStreakService(repo service.RecordRepository) *service.StreakService {
	return service.NewStreakService(repo, zap.NewNop(), nil)
}

func TestStreakService_FirstReportCreatesRecord(t *testing.T) {
	repo := newMemRepo()
	svc := newStreakService(repo)

	rec, outcome, err := svc.ApplyReport(context.Background(), entities.DailyReport{
		UserID: "100", DisplayName: "Ana", Attempted: 10, Correct: 7,
	}, today, yesterday)
	require.NoError(t, err)

	assert.Equal(t, entities.OutcomeCreated, outcome)
	assert.Equal(t, 1, repo.creates)
	assert.Equal(t, 0, repo.updates)

	stored := repo.get("100")
	assert.Equal(t, *rec, stored)
	assert.Equal(t, 1, stored.StreakDays)
	assert.Equal(t, 10, stored.TotalQuestions)
	assert.Equal(t, 7, stored.TotalCorrect)
	assert.Equal(t, today, stored.LastActiveDate)
	assert.Equal(t, "Ana", stored.DisplayName)
}

func TestStreakService_ConsecutiveDay(t *testing.T) {
	repo := newMemRepo(&entities.UserRecord{
		UserID: "100", DisplayName: "Ana", StreakDays: 3,
		TotalQuestions: 50, TotalCorrect: 30, LastActiveDate: yesterday,
	})
	svc := newStreakService(repo)

	_, outcome, err := svc.ApplyReport(context.Background(), entities.DailyReport{
		UserID: "100", DisplayName: "Ana Paula", Attempted: 5, Correct: 4,
	}, today, yesterday)
	require.NoError(t, err)

	assert.Equal(t, entities.OutcomeAdvanced, outcome)
	assert.Equal(t, 0, repo.creates)
	assert.Equal(t, 1, repo.updates)

	stored := repo.get("100")
	assert.Equal(t, 4, stored.StreakDays)
	assert.Equal(t, 55, stored.TotalQuestions)
	assert.Equal(t, 34, stored.TotalCorrect)
	assert.Equal(t, today, stored.LastActiveDate)
	assert.Equal(t, "Ana", stored.DisplayName, "display name is immutable")
}

func TestStreakService_GapRestartsStreak(t *testing.T) {
	repo := newMemRepo(&entities.UserRecord{
		UserID: "100", StreakDays: 7, TotalQuestions: 100, TotalCorrect: 80,
		LastActiveDate: today.AddDays(-5),
	})
	svc := newStreakService(repo)

	_, outcome, err := svc.ApplyReport(context.Background(), entities.DailyReport{
		UserID: "100", Attempted: 2, Correct: 2,
	}, today, yesterday)
	require.NoError(t, err)

	assert.Equal(t, entities.OutcomeRestarted, outcome)
	stored := repo.get("100")
	assert.Equal(t, 1, stored.StreakDays)
	assert.Equal(t, 102, stored.TotalQuestions)
	assert.Equal(t, 82, stored.TotalCorrect)
	assert.Equal(t, today, stored.LastActiveDate)
}

func TestStreakService_SameDayReportTwice(t *testing.T) {
	repo := newMemRepo()
	svc := newStreakService(repo)
	ctx := context.Background()

	report := entities.DailyReport{UserID: "100", DisplayName: "Ana", Attempted: 10, Correct: 7}

	_, _, err := svc.ApplyReport(ctx, report, today, yesterday)
	require.NoError(t, err)
	_, outcome, err := svc.ApplyReport(ctx, report, today, yesterday)
	require.NoError(t, err)

	assert.Equal(t, entities.OutcomeResubmitted, outcome)
	stored := repo.get("100")
	assert.Equal(t, 10, stored.TotalQuestions)
	assert.Equal(t, 7, stored.TotalCorrect)
	assert.Equal(t, 1, stored.StreakDays)
}

func TestStreakService_InvalidReportTouchesNothing(t *testing.T) {
	repo := newMemRepo()
	svc := newStreakService(repo)

	_, _, err := svc.ApplyReport(context.Background(), entities.DailyReport{
		UserID: "100", Attempted: 3, Correct: 4,
	}, today, yesterday)

	require.ErrorIs(t, err, entities.ErrInvalidReport)
	assert.Equal(t, 0, repo.creates)
	assert.Equal(t, 0, repo.updates)
}

func TestStreakService_OversizedReportRejected(t *testing.T) {
	repo := newMemRepo()
	svc := newStreakService(repo)

	_, _, err := svc.ApplyReport(context.Background(), entities.DailyReport{
		UserID: "100", Attempted: entities.MaxReportCount + 1, Correct: 1,
	}, today, yesterday)

	require.ErrorIs(t, err, entities.ErrInvalidReport)
	assert.Equal(t, 0, repo.creates)
	assert.Empty(t, repo.records)
}

func TestStreakService_StoreFailuresSurface(t *testing.T) {
	ctx := context.Background()
	report := entities.DailyReport{UserID: "100", Attempted: 1, Correct: 1}

	t.Run("find", func(t *testing.T) {
		repo := newMemRepo()
		repo.failFind = errStoreDown

		_, _, err := newStreakService(repo).ApplyReport(ctx, report, today, yesterday)
		require.ErrorIs(t, err, errStoreDown)
		assert.Equal(t, 0, repo.creates)
	})

	t.Run("create", func(t *testing.T) {
		repo := newMemRepo()
		repo.failCreate = errStoreDown

		_, _, err := newStreakService(repo).ApplyReport(ctx, report, today, yesterday)
		require.ErrorIs(t, err, errStoreDown)
		assert.Equal(t, 1, repo.creates, "no retry")
	})

	t.Run("update", func(t *testing.T) {
		repo := newMemRepo(&entities.UserRecord{UserID: "100", StreakDays: 1, LastActiveDate: yesterday})
		repo.failUpdate = map[string]error{"100": errStoreDown}

		_, _, err := newStreakService(repo).ApplyReport(ctx, report, today, yesterday)
		require.ErrorIs(t, err, errStoreDown)
		assert.Equal(t, 1, repo.updates, "no retry")
		assert.Equal(t, yesterday, repo.get("100").LastActiveDate)
	})
}
