package telegram

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-streak-bot/internal/domain/entities"
	"github.com/aliskhannn/quiz-streak-bot/internal/service"
)

type HandlerFunc func(ctx context.Context, chatID int64) error

// withErrorHandling logs a failed handler and answers the chat; nothing propagates further.
func (h *Handler) withErrorHandling(fn HandlerFunc) func(ctx context.Context, chatID int64) {
	return func(ctx context.Context, chatID int64) {
		err := fn(ctx, chatID)
		switch {
		case err == nil:
			return

		case errors.Is(err, entities.ErrInvalidReport):
			h.logger.Info("rejected report",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			h.reply(ctx, chatID, msgInvalidReport)

		default:
			h.logger.Error("handle error",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			h.reply(ctx, chatID, msgInternalError)
		}
	}
}

// reply sends plain text; the sender already logs failures.
func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	_ = h.sender.Send(ctx, chatID, text, service.FormatPlain)
}
