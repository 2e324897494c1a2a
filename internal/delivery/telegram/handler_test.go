package telegram_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"cloud.google.com/go/civil"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-streak-bot/internal/delivery/telegram"
	"github.com/aliskhannn/quiz-streak-bot/internal/domain/entities"
	"github.com/aliskhannn/quiz-streak-bot/internal/service"
)

var (
	today     = civil.Date{Year: 2026, Month: 5, Day: 20}
	yesterday = today.AddDays(-1)
)

const chatID int64 = -100777

type fixedCalendar struct{}

func (fixedCalendar) Days() (civil.Date, civil.Date) { return today, yesterday }

type sent struct {
	chatID int64
	text   string
	mode   service.FormatMode
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sent
}

func (s *recordingSender) Send(_ context.Context, chatID int64, text string, mode service.FormatMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sent{chatID: chatID, text: text, mode: mode})
	return nil
}

type fakeStreak struct {
	reports []entities.DailyReport
	rec     *entities.UserRecord
	err     error
}

func (f *fakeStreak) ApplyReport(_ context.Context, r entities.DailyReport, gotToday, gotYesterday civil.Date) (*entities.UserRecord, entities.ReportOutcome, error) {
	if gotToday != today || gotYesterday != yesterday {
		return nil, "", fmt.Errorf("unexpected days %s %s", gotToday, gotYesterday)
	}
	f.reports = append(f.reports, r)
	if f.err != nil {
		return nil, "", f.err
	}
	return f.rec, entities.OutcomeAdvanced, nil
}

type fakeRanking struct {
	calls int
	text  string
	err   error
}

func (f *fakeRanking) Preview(_ context.Context, _ civil.Date) (string, error) {
	f.calls++
	return f.text, f.err
}

type fixture struct {
	handler *telegram.Handler
	sender  *recordingSender
	streak  *fakeStreak
	ranking *fakeRanking
}

func newFixture() *fixture {
	f := &fixture{
		sender:  &recordingSender{},
		streak:  &fakeStreak{rec: &entities.UserRecord{StreakDays: 4, TotalQuestions: 55, TotalCorrect: 34}},
		ranking: &fakeRanking{text: "ranking text"},
	}
	f.handler = telegram.NewHandler(f.sender, f.streak, f.ranking, fixedCalendar{}, zap.NewNop(), nil)
	return f
}

func textUpdate(text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			Text: text,
			Chat: &tgbotapi.Chat{ID: chatID},
			From: &tgbotapi.User{ID: 555, FirstName: "Ana", LastName: "Souza"},
		},
	}
}

func commandUpdate(command string) tgbotapi.Update {
	u := textUpdate(command)
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}}
	return u
}

func TestHandler_Report(t *testing.T) {
	f := newFixture()

	f.handler.HandleUpdate(context.Background(), textUpdate("5/4"))

	require.Len(t, f.streak.reports, 1)
	assert.Equal(t, entities.DailyReport{UserID: "555", DisplayName: "Ana Souza", Attempted: 5, Correct: 4}, f.streak.reports[0])

	require.Len(t, f.sender.sent, 1)
	reply := f.sender.sent[0]
	assert.Equal(t, chatID, reply.chatID)
	assert.Equal(t, service.FormatPlain, reply.mode)
	assert.Contains(t, reply.text, "📊 Ana, seus dados foram salvos com sucesso!")
	assert.Contains(t, reply.text, "4 dia(s)")
	assert.Contains(t, reply.text, "55 questões, 34 acertos")
}

func TestHandler_InvalidReportGetsHint(t *testing.T) {
	f := newFixture()
	f.streak.err = fmt.Errorf("%w: correct exceeds attempted", entities.ErrInvalidReport)

	f.handler.HandleUpdate(context.Background(), textUpdate("3/4"))

	require.Len(t, f.sender.sent, 1)
	assert.Contains(t, f.sender.sent[0].text, "Acertos não podem passar")
	assert.Contains(t, f.sender.sent[0].text, "10000 questões por dia")
}

func TestHandler_StoreFailureGetsGenericReply(t *testing.T) {
	f := newFixture()
	f.streak.err = errors.New("connection refused")

	f.handler.HandleUpdate(context.Background(), textUpdate("3/2"))

	require.Len(t, f.sender.sent, 1)
	assert.Contains(t, f.sender.sent[0].text, "Não foi possível processar")
	assert.NotContains(t, f.sender.sent[0].text, "connection refused")
}

func TestHandler_IgnoresOtherText(t *testing.T) {
	f := newFixture()

	for _, text := range []string{"bom dia", "20/15 hoje", "1/2/3"} {
		f.handler.HandleUpdate(context.Background(), textUpdate(text))
	}
	f.handler.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 2})
	f.handler.HandleUpdate(context.Background(), commandUpdate("/unknown"))

	assert.Empty(t, f.streak.reports)
	assert.Empty(t, f.sender.sent)
	assert.Zero(t, f.ranking.calls)
}

func TestHandler_RankingCommandPreviews(t *testing.T) {
	f := newFixture()

	f.handler.HandleUpdate(context.Background(), commandUpdate("/ranking"))

	assert.Equal(t, 1, f.ranking.calls)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, sent{chatID: chatID, text: "ranking text", mode: service.FormatMarkdown}, f.sender.sent[0])
}

func TestHandler_RankingCommandWithBotName(t *testing.T) {
	f := newFixture()

	f.handler.HandleUpdate(context.Background(), commandUpdate("/ranking@quiz_streak_bot"))

	assert.Equal(t, 1, f.ranking.calls)
}

func TestHandler_RankingFailure(t *testing.T) {
	f := newFixture()
	f.ranking.err = errors.New("list failed")

	f.handler.HandleUpdate(context.Background(), commandUpdate("/ranking"))

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, service.FormatPlain, f.sender.sent[0].mode)
	assert.Contains(t, f.sender.sent[0].text, "Não foi possível processar")
}

func TestHandler_StartAndHelp(t *testing.T) {
	f := newFixture()

	f.handler.HandleUpdate(context.Background(), commandUpdate("/start"))
	f.handler.HandleUpdate(context.Background(), commandUpdate("/help"))

	require.Len(t, f.sender.sent, 2)
	assert.Contains(t, f.sender.sent[0].text, "Bot iniciado")
	assert.Contains(t, f.sender.sent[1].text, "Como funciona")
}

func TestHandler_RunStopsWhenChannelCloses(t *testing.T) {
	f := newFixture()
	updates := make(chan tgbotapi.Update, 1)
	updates <- textUpdate("1/1")
	close(updates)

	err := f.handler.Run(context.Background(), updates)
	require.NoError(t, err)
	assert.Len(t, f.streak.reports, 1)
}
