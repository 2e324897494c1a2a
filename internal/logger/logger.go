package logger

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-streak-bot/internal/config"
)

// New builds the process logger: JSON in production, console elsewhere.
// cfg.LogLevel overrides the preset level when set.
func New(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.Env == "production" {
		zcfg = zap.NewProductionConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		zcfg.Level = level
	}

	l, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return l.With(zap.String("env", cfg.Env)), nil
}
