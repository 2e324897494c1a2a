package telegram_test

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aliskhannn/quiz-streak-bot/internal/delivery/telegram"
	"github.com/aliskhannn/quiz-streak-bot/internal/service"
)

type fakeBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, b.err
}

func TestSender_ParseModes(t *testing.T) {
	bot := &fakeBot{}
	s := telegram.NewSender(bot, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Send(ctx, chatID, "plain", service.FormatPlain))
	require.NoError(t, s.Send(ctx, chatID, "*bold*", service.FormatMarkdown))

	require.Len(t, bot.sent, 2)

	plain, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, chatID, plain.ChatID)
	assert.Equal(t, "plain", plain.Text)
	assert.Empty(t, plain.ParseMode)

	markdown, ok := bot.sent[1].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, markdown.ParseMode)
}

func TestSender_LogsFailure(t *testing.T) {
	bot := &fakeBot{err: errors.New("Bad Request: chat not found")}
	core, logs := observer.New(zap.ErrorLevel)
	s := telegram.NewSender(bot, zap.New(core))

	err := s.Send(context.Background(), chatID, "hi", service.FormatPlain)

	require.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("failed to send telegram message").Len())
}

func TestSender_CancelledContext(t *testing.T) {
	bot := &fakeBot{}
	s := telegram.NewSender(bot, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Send(ctx, chatID, "hi", service.FormatPlain), context.Canceled)
	assert.Empty(t, bot.sent)
}
