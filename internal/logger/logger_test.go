package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-streak-bot/internal/config"
	"github.com/aliskhannn/quiz-streak-bot/internal/logger"
)

func TestNew(t *testing.T) {
	l, err := logger.New(&config.Config{Env: "local"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	l, err = logger.New(&config.Config{Env: "production"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
}

func TestNew_LevelOverride(t *testing.T) {
	l, err := logger.New(&config.Config{Env: "production", LogLevel: "warn"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Core().Enabled(zap.WarnLevel))

	_, err = logger.New(&config.Config{LogLevel: "loud"})
	assert.Error(t, err)
}
