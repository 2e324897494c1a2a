package telegram

import (
	"context"

	"cloud.google.com/go/civil"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/quiz-streak-bot/internal/domain/entities"
)

// Bot is the part of *tgbotapi.BotAPI the sender needs.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type StreakService interface {
	ApplyReport(ctx context.Context, report entities.DailyReport, today, yesterday civil.Date) (*entities.UserRecord, entities.ReportOutcome, error)
}

type RankingService interface {
	Preview(ctx context.Context, today civil.Date) (string, error)
}

// Calendar supplies the report day for the configured zone.
type Calendar interface {
	Days() (today, yesterday civil.Date)
}
