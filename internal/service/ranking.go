package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"cloud.google.com/go/civil"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-streak-bot/internal/domain/entities"
	"github.com/aliskhannn/quiz-streak-bot/internal/metrics"
)

var ErrResetsFailed = errors.New("streak resets failed")

const defaultMaxConcurrentResets = 10

// RankingOptions tunes rendering and the reset fan-out.
type RankingOptions struct {
	Limit               int // rendered rows, 0 = all
	MaxConcurrentResets int
}

// PassResult summarizes one ranking pass.
type PassResult struct {
	Text         string
	Ranked       int
	ResetsIssued int
	ResetsFailed int
	Delivered    bool
}

// RankingService renders the daily leaderboard and zeroes streaks of inactive users.
type RankingService struct {
	repo          RecordRepository
	sender        MessageSender
	logger        *zap.Logger
	metrics       *metrics.Collector
	limit         int
	maxConcurrent int
}

func NewRankingService(
	repo RecordRepository,
	sender MessageSender,
	logger *zap.Logger,
	m *metrics.Collector,
	opts RankingOptions,
) *RankingService {
	if opts.MaxConcurrentResets < 1 {
		opts.MaxConcurrentResets = defaultMaxConcurrentResets
	}

	return &RankingService{
		repo:          repo,
		sender:        sender,
		logger:        logger,
		metrics:       m,
		limit:         max(opts.Limit, 0),
		maxConcurrent: opts.MaxConcurrentResets,
	}
}

// ComputeRanking renders the leaderboard for today and lists the streak resets it implies.
func (s *RankingService) ComputeRanking(records []*entities.UserRecord, today civil.Date) (string, []entities.ResetWrite) {
	lb := entities.BuildLeaderboard(records, today)
	return RenderLeaderboard(lb, s.limit), lb.Resets
}

// Preview renders today's leaderboard without writing anything.
func (s *RankingService) Preview(ctx context.Context, today civil.Date) (string, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("list records: %w", err)
	}

	text, _ := s.ComputeRanking(records, today)
	return text, nil
}

// RunPass sends today's leaderboard to chatID and then resets the streak of
// every user who did not report today.
//
// The message goes out before the resets. If the process dies in between, the
// next pass finds the same inactive users and resets them then.
func (s *RankingService) RunPass(ctx context.Context, chatID int64, today civil.Date) (*PassResult, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		s.metrics.ObservePass(metrics.PassFailed)
		return nil, fmt.Errorf("list records: %w", err)
	}

	text, resets := s.ComputeRanking(records, today)
	result := &PassResult{
		Text:         text,
		Ranked:       len(records),
		ResetsIssued: len(resets),
	}

	if err := s.sender.Send(ctx, chatID, text, FormatMarkdown); err != nil {
		s.logger.Warn("leaderboard not delivered, continuing with resets",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	} else {
		result.Delivered = true
	}

	failed, err := s.applyResets(ctx, resets)
	result.ResetsFailed = failed
	s.metrics.ObserveResets(len(resets)-failed, failed)

	if err != nil {
		s.metrics.ObservePass(metrics.PassPartial)
		return result, fmt.Errorf("%w: %d of %d: %w", ErrResetsFailed, failed, len(resets), err)
	}

	s.metrics.ObservePass(metrics.PassOK)
	s.logger.Info("ranking pass finished",
		zap.Int64("chat_id", chatID),
		zap.Stringer("date", today),
		zap.Int("ranked", result.Ranked),
		zap.Int("resets", result.ResetsIssued),
	)

	return result, nil
}

// applyResets issues the writes concurrently and waits for all of them.
// Every failure is collected; one failing write does not cancel the others.
func (s *RankingService) applyResets(ctx context.Context, resets []entities.ResetWrite) (int, error) {
	if len(resets) == 0 {
		return 0, nil
	}

	var failed atomic.Int64
	p := pool.New().WithMaxGoroutines(s.maxConcurrent).WithContext(ctx)

	for _, w := range resets {
		p.Go(func(ctx context.Context) error {
			if err := s.repo.Update(ctx, w.UserID, entities.ResetStreakPatch()); err != nil {
				failed.Add(1)
				s.logger.Error("failed to reset streak",
					zap.String("user_id", w.UserID),
					zap.Error(err),
				)
				return fmt.Errorf("reset %s: %w", w.UserID, err)
			}
			return nil
		})
	}

	err := p.Wait()
	return int(failed.Load()), err
}
