package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-streak-bot/internal/domain/entities"
	"github.com/aliskhannn/quiz-streak-bot/internal/metrics"
	"github.com/aliskhannn/quiz-streak-bot/internal/service"
)

// Update kinds for metrics.
const (
	kindCommand = "command"
	kindReport  = "report"
	kindIgnored = "ignored"
)

type Handler struct {
	sender   service.MessageSender
	streak   StreakService
	ranking  RankingService
	calendar Calendar
	logger   *zap.Logger
	metrics  *metrics.Collector
}

func NewHandler(
	sender service.MessageSender,
	streak StreakService,
	ranking RankingService,
	calendar Calendar,
	logger *zap.Logger,
	m *metrics.Collector,
) *Handler {
	return &Handler{
		sender:   sender,
		streak:   streak,
		ranking:  ranking,
		calendar: calendar,
		logger:   logger,
		metrics:  m,
	}
}

// Run handles polled updates until ctx is cancelled or the channel closes.
func (h *Handler) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate routes one update. Text that is neither a known command nor a
// report is ignored.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		h.metrics.ObserveUpdate(kindIgnored)
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Int("update_id", update.UpdateID),
	)

	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			h.metrics.ObserveUpdate(kindCommand)
			h.reply(ctx, chatID, msgWelcome)

		case "help":
			h.metrics.ObserveUpdate(kindCommand)
			h.reply(ctx, chatID, msgHelp)

		case "ranking":
			h.metrics.ObserveUpdate(kindCommand)
			h.withErrorHandling(h.handleRanking())(ctx, chatID)

		default:
			h.metrics.ObserveUpdate(kindIgnored)
		}
		return
	}

	attempted, correct, ok := ParseReport(msg.Text)
	if !ok || msg.From == nil {
		h.metrics.ObserveUpdate(kindIgnored)
		return
	}

	h.metrics.ObserveUpdate(kindReport)
	report := entities.DailyReport{
		UserID:      strconv.FormatInt(msg.From.ID, 10),
		DisplayName: displayName(msg.From),
		Attempted:   attempted,
		Correct:     correct,
	}
	h.withErrorHandling(h.handleReport(report, msg.From.FirstName))(ctx, chatID)
}

// handleRanking previews today's leaderboard without resetting anyone.
func (h *Handler) handleRanking() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		today, _ := h.calendar.Days()

		text, err := h.ranking.Preview(ctx, today)
		if err != nil {
			return fmt.Errorf("preview ranking: %w", err)
		}

		_ = h.sender.Send(ctx, chatID, text, service.FormatMarkdown)
		return nil
	}
}

func (h *Handler) handleReport(report entities.DailyReport, firstName string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		today, yesterday := h.calendar.Days()

		rec, _, err := h.streak.ApplyReport(ctx, report, today, yesterday)
		if err != nil {
			return err
		}

		name := firstName
		if name == "" {
			name = report.DisplayName
		}

		h.reply(ctx, chatID, fmt.Sprintf(msgReportSaved, name, rec.StreakDays, rec.TotalQuestions, rec.TotalCorrect))
		return nil
	}
}
