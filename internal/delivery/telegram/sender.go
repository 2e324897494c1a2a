package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-streak-bot/internal/service"
)

// Sender delivers messages through the Bot API.
type Sender struct {
	bot    Bot
	logger *zap.Logger
}

func NewSender(bot Bot, logger *zap.Logger) *Sender {
	return &Sender{bot: bot, logger: logger}
}

// Send logs delivery failures and returns them; it never retries.
func (s *Sender) Send(ctx context.Context, chatID int64, text string, mode service.FormatMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if mode == service.FormatMarkdown {
		msg.ParseMode = tgbotapi.ModeMarkdownV2
	}

	if _, err := s.bot.Send(msg); err != nil {
		s.logger.Error("failed to send telegram message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}
