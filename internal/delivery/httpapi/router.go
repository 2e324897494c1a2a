// Package httpapi exposes the bot's HTTP surface: the Telegram webhook, the
// external ranking trigger, a liveness ping and Prometheus metrics.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-streak-bot/internal/service"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

type Calendar interface {
	Days() (today, yesterday civil.Date)
}

type Options struct {
	WebhookSecret string // empty accepts every webhook call
	TriggerToken  string // empty disables the bearer check
	DefaultChatID int64
}

type Router struct {
	updates  UpdateHandler
	ranking  service.PassRunner
	calendar Calendar
	metrics  http.Handler
	opts     Options
	logger   *zap.Logger
}

func NewRouter(
	updates UpdateHandler,
	ranking service.PassRunner,
	calendar Calendar,
	metrics http.Handler,
	opts Options,
	logger *zap.Logger,
) *Router {
	return &Router{
		updates:  updates,
		ranking:  ranking,
		calendar: calendar,
		metrics:  metrics,
		opts:     opts,
		logger:   logger,
	}
}

// Handler builds the mux with request logging applied to every route.
func (rt *Router) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(rt.requestLogger)

	r.HandleFunc("/webhook", rt.handleWebhook).Methods(http.MethodPost)
	r.HandleFunc("/webhook/{secret}", rt.handleWebhook).Methods(http.MethodPost)
	r.HandleFunc("/trigger/ranking", rt.handleTrigger).Methods(http.MethodPost)
	r.HandleFunc("/ping", handlePing).Methods(http.MethodGet)
	if rt.metrics != nil {
		r.Handle("/metrics", rt.metrics).Methods(http.MethodGet)
	}

	return r
}

func (rt *Router) handleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r.Context(), rt.logger)

	if !rt.webhookAuthorized(r) {
		logger.Warn("webhook secret mismatch")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		logger.Warn("undecodable webhook body", zap.Error(err))
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}

	// finish the update even if Telegram drops the connection
	rt.updates.HandleUpdate(context.WithoutCancel(r.Context()), update)
	w.WriteHeader(http.StatusOK)
}

func (rt *Router) webhookAuthorized(r *http.Request) bool {
	if rt.opts.WebhookSecret == "" {
		return true
	}
	if secret, ok := mux.Vars(r)["secret"]; ok && equal(secret, rt.opts.WebhookSecret) {
		return true
	}
	return equal(r.Header.Get(secretHeader), rt.opts.WebhookSecret)
}

func (rt *Router) handleTrigger(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r.Context(), rt.logger)

	if rt.opts.TriggerToken != "" {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !equal(token, rt.opts.TriggerToken) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	chatID := rt.opts.DefaultChatID
	if raw := r.URL.Query().Get("chat_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid chat_id", http.StatusBadRequest)
			return
		}
		chatID = id
	}
	if chatID == 0 {
		http.Error(w, "no destination chat configured", http.StatusBadRequest)
		return
	}

	today, _ := rt.calendar.Days()

	result, err := rt.ranking.RunPass(context.WithoutCancel(r.Context()), chatID, today)
	switch {
	case err == nil:
		logger.Info("ranking pass triggered",
			zap.Int64("chat_id", chatID),
			zap.Int("ranked", result.Ranked),
			zap.Int("resets", result.ResetsIssued),
		)
		fmt.Fprintf(w, "ok: %d ranked, %d resets\n", result.Ranked, result.ResetsIssued)

	case errors.Is(err, service.ErrResetsFailed) && result != nil:
		logger.Error("ranking pass partially failed", zap.Int64("chat_id", chatID), zap.Error(err))
		http.Error(w, fmt.Sprintf("leaderboard sent, %d of %d resets failed", result.ResetsFailed, result.ResetsIssued),
			http.StatusInternalServerError)

	default:
		logger.Error("ranking pass failed", zap.Int64("chat_id", chatID), zap.Error(err))
		http.Error(w, "ranking failed: could not list records", http.StatusInternalServerError)
	}
}

func handlePing(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("Pong"))
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

type ctxKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogger tags each request with an id and logs its outcome.
func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		requestID := uuid.NewString()
		logger := rt.logger.With(zap.String("request_id", requestID))

		w.Header().Set("X-Request-ID", requestID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), ctxKey{}, logger)))

		// route template, so webhook secrets stay out of the log
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}

		logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(started)),
		)
	})
}

func loggerFrom(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return fallback
}
