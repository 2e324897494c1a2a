// Package infra opens the configured record store.
package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-streak-bot/internal/config"
	"github.com/aliskhannn/quiz-streak-bot/internal/domain/entities"
	"github.com/aliskhannn/quiz-streak-bot/internal/infra/postgres"
	pgrepo "github.com/aliskhannn/quiz-streak-bot/internal/infra/postgres/repository"
	"github.com/aliskhannn/quiz-streak-bot/internal/infra/redis"
	"github.com/aliskhannn/quiz-streak-bot/internal/infra/sqlite"
	"github.com/aliskhannn/quiz-streak-bot/internal/metrics"
	"github.com/aliskhannn/quiz-streak-bot/internal/service"
)

// Store is a record repository that can prepare its own schema.
type Store interface {
	service.RecordRepository
	Init(ctx context.Context) error
}

// Open connects to the backend named by cfg.Store.Driver. The returned
// closer releases the connection.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		dsn, err := cfg.DB.DSN()
		if err != nil {
			return nil, nil, err
		}

		pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:        int32(cfg.DB.MaxConnections),
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}

		logger.Info("record store: postgres")
		return pgrepo.NewRecordRepository(pool, postgres.NewTransactor(pool)), pool.Close, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}

		logger.Info("record store: sqlite", zap.String("path", cfg.SQLite.Path))
		return sqlite.NewRecordRepository(db), func() { _ = db.Close() }, nil

	case config.DriverRedis:
		client, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			return nil, nil, err
		}

		logger.Info("record store: redis", zap.String("addr", cfg.Redis.Addr))
		return redis.NewRecordRepository(client, cfg.Redis.KeyPrefix), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalidConfig, cfg.Store.Driver)
	}
}

// Instrumented times every call of the wrapped store.
type Instrumented struct {
	next    Store
	metrics *metrics.Collector
}

func NewInstrumented(next Store, m *metrics.Collector) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

func (s *Instrumented) observe(op string, started time.Time, err error) {
	if errors.Is(err, entities.ErrRecordNotFound) {
		err = nil
	}
	s.metrics.ObserveStore(op, started, err)
}

func (s *Instrumented) Init(ctx context.Context) error {
	started := time.Now()
	err := s.next.Init(ctx)
	s.observe("init", started, err)
	return err
}

func (s *Instrumented) FindByUserID(ctx context.Context, userID string) (*entities.UserRecord, error) {
	started := time.Now()
	rec, err := s.next.FindByUserID(ctx, userID)
	s.observe("find", started, err)
	return rec, err
}

func (s *Instrumented) Create(ctx context.Context, rec *entities.UserRecord) error {
	started := time.Now()
	err := s.next.Create(ctx, rec)
	s.observe("create", started, err)
	return err
}

func (s *Instrumented) Update(ctx context.Context, userID string, patch entities.RecordPatch) error {
	started := time.Now()
	err := s.next.Update(ctx, userID, patch)
	s.observe("update", started, err)
	return err
}

func (s *Instrumented) ListAll(ctx context.Context) ([]*entities.UserRecord, error) {
	started := time.Now()
	records, err := s.next.ListAll(ctx)
	s.observe("list", started, err)
	return records, err
}
