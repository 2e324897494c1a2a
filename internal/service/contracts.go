package service

import (
	"context"

	"github.com/aliskhannn/quiz-streak-bot/internal/domain/entities"
)

// RecordRepository persists one UserRecord per user.
type RecordRepository interface {
	// FindByUserID returns entities.ErrRecordNotFound when the user has no record.
	FindByUserID(ctx context.Context, userID string) (*entities.UserRecord, error)
	Create(ctx context.Context, rec *entities.UserRecord) error
	// Update writes the non-nil fields of patch; entities.ErrRecordNotFound when absent.
	Update(ctx context.Context, userID string, patch entities.RecordPatch) error
	// ListAll returns every record in creation order.
	ListAll(ctx context.Context) ([]*entities.UserRecord, error)
}

// FormatMode selects how the chat renders a message.
type FormatMode int

const (
	FormatPlain    FormatMode = iota
	FormatMarkdown            // Telegram MarkdownV2
)

// MessageSender delivers text to a chat. Implementations log their own delivery failures.
type MessageSender interface {
	Send(ctx context.Context, chatID int64, text string, mode FormatMode) error
}
