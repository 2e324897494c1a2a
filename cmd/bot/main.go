package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-streak-bot/internal/config"
	"github.com/aliskhannn/quiz-streak-bot/internal/delivery/httpapi"
	"github.com/aliskhannn/quiz-streak-bot/internal/delivery/telegram"
	"github.com/aliskhannn/quiz-streak-bot/internal/domain/entities"
	"github.com/aliskhannn/quiz-streak-bot/internal/infra"
	"github.com/aliskhannn/quiz-streak-bot/internal/logger"
	"github.com/aliskhannn/quiz-streak-bot/internal/metrics"
	"github.com/aliskhannn/quiz-streak-bot/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("bot stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := entities.ParseTimezoneLocation(cfg.Timezone)
	if err != nil {
		return err
	}
	calendar := service.NewCalendar(loc)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	rawStore, closeStore, err := infra.Open(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer closeStore()

	store := infra.NewInstrumented(rawStore, m)
	if err := store.Init(ctx); err != nil {
		return err
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return err
	}
	bot.Debug = cfg.Telegram.Debug
	lg.Info("authorized on telegram", zap.String("account", bot.Self.UserName))

	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Iniciar o bot"},
		{Command: "ranking", Description: "Ver o ranking de hoje"},
		{Command: "help", Description: "Como enviar o resultado do dia"},
	}
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}

	sender := telegram.NewSender(bot, lg.Named("sender"))
	streakService := service.NewStreakService(store, lg.Named("streak"), m)
	rankingService := service.NewRankingService(store, sender, lg.Named("ranking"), m, service.RankingOptions{
		Limit:               cfg.Ranking.Limit,
		MaxConcurrentResets: cfg.Ranking.MaxConcurrentResets,
	})
	handler := telegram.NewHandler(sender, streakService, rankingService, calendar, lg.Named("telegram"), m)

	router := httpapi.NewRouter(handler, rankingService, calendar, m.Handler(), httpapi.Options{
		WebhookSecret: cfg.Telegram.WebhookSecret,
		TriggerToken:  cfg.Trigger.Token,
		DefaultChatID: cfg.Telegram.DefaultChatID,
	}, lg.Named("http"))

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg conc.WaitGroup

	wg.Go(func() {
		lg.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("http server failed", zap.Error(err))
			stop()
		}
	})

	switch cfg.Telegram.Mode {
	case config.ModeWebhook:
		if err := registerWebhook(bot, cfg.Telegram); err != nil {
			stop()
			wg.Wait()
			return err
		}
		lg.Info("webhook registered")

	case config.ModePolling:
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			lg.Warn("failed to delete webhook", zap.Error(err))
		}

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := bot.GetUpdatesChan(u)

		wg.Go(func() {
			_ = handler.Run(ctx, updates)
		})
	}

	if cfg.Ranking.Enabled {
		scheduler := service.NewScheduler(rankingService, calendar, cfg.Telegram.DefaultChatID, cfg.Ranking.Schedule, lg.Named("scheduler"))
		wg.Go(func() {
			if err := scheduler.Start(ctx); err != nil {
				lg.Error("scheduler failed", zap.Error(err))
				stop()
			}
		})
	}

	<-ctx.Done()
	lg.Info("shutdown signal received")

	if cfg.Telegram.Mode == config.ModePolling {
		bot.StopReceivingUpdates()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown failed", zap.Error(err))
	}

	wg.Wait()
	return nil
}

// registerWebhook points Telegram at webhook_url, with the secret appended as
// the last path segment when one is configured.
func registerWebhook(bot *tgbotapi.BotAPI, cfg config.Telegram) error {
	url := cfg.WebhookURL
	if cfg.WebhookSecret != "" {
		url = strings.TrimSuffix(url, "/") + "/" + cfg.WebhookSecret
	}

	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}

	if _, err := bot.Request(wh); err != nil {
		return err
	}
	return nil
}
