package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrInvalidConfig               = errors.New("invalid configuration")
)

// Telegram delivery modes.
const (
	ModeWebhook = "webhook"
	ModePolling = "polling"
)

// Record store backends.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string   `mapstructure:"env"`       // current application environment (local, dev, production)
	LogLevel         string   `mapstructure:"log_level"` // overrides the env-derived level when set
	TelegramAPIToken string   `mapstructure:"-"`         // Telegram API token loaded from environment
	Timezone         string   `mapstructure:"timezone"`  // zone used to count report days
	Telegram         Telegram `mapstructure:"telegram"`
	HTTP             HTTP     `mapstructure:"http"`
	Trigger          Trigger  `mapstructure:"trigger"`
	Ranking          Ranking  `mapstructure:"ranking"`
	Store            Store    `mapstructure:"store"`
	DB               DB       `mapstructure:"database"`
	SQLite           SQLite   `mapstructure:"sqlite"`
	Redis            Redis    `mapstructure:"redis"`
}

// Telegram configures how updates reach the bot.
type Telegram struct {
	Mode          string `mapstructure:"mode"`            // webhook or polling
	WebhookURL    string `mapstructure:"webhook_url"`     // public URL of /webhook; the secret is appended as a path segment
	WebhookSecret string `mapstructure:"webhook_secret"`  // optional path segment / secret token
	DefaultChatID int64  `mapstructure:"default_chat_id"` // group that receives scheduled rankings
	Debug         bool   `mapstructure:"debug"`
}

// HTTP configures the inbound server.
type HTTP struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Trigger protects the external ranking trigger endpoint.
type Trigger struct {
	Token string `mapstructure:"token"` // empty disables the bearer check
}

// Ranking configures the daily leaderboard pass.
type Ranking struct {
	Enabled             bool   `mapstructure:"enabled"`               // run the in-process scheduler
	Schedule            string `mapstructure:"schedule"`              // cron spec in Timezone
	Limit               int    `mapstructure:"limit"`                 // rendered lines, 0 = everyone
	MaxConcurrentResets int    `mapstructure:"max_concurrent_resets"` // reset write fan-out
}

// Store selects the record store backend.
type Store struct {
	Driver string `mapstructure:"driver"`
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// SQLite configures the embedded store.
type SQLite struct {
	Path string `mapstructure:"path"`
}

// Redis configures the redis store.
type Redis struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"-"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Load reads configuration from .env, config files and environment variables.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("log_level", "")
	v.SetDefault("timezone", "America/Sao_Paulo")
	v.SetDefault("telegram.mode", ModeWebhook)
	v.SetDefault("telegram.webhook_url", "")
	v.SetDefault("telegram.webhook_secret", "")
	v.SetDefault("telegram.default_chat_id", 0)
	v.SetDefault("telegram.debug", false)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("trigger.token", "")
	v.SetDefault("ranking.enabled", true)
	v.SetDefault("ranking.schedule", "0 23 * * *")
	v.SetDefault("ranking.limit", 0)
	v.SetDefault("ranking.max_concurrent_resets", 10)
	v.SetDefault("store.driver", DriverPostgres)
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("sqlite.path", "./data/streaks.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.key_prefix", "streak:")

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // telegram.mode -> TELEGRAM_MODE
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	cfg.DB.URL = v.GetString("database_url")
	cfg.Redis.Password = v.GetString("redis_password")

	// Reject combinations the bot cannot run with.
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.TelegramAPIToken == "" {
		return fmt.Errorf("%w: TELEGRAM_API_TOKEN", ErrMissingEnvironmentVariables)
	}

	switch c.Telegram.Mode {
	case ModeWebhook:
		if c.Telegram.WebhookURL == "" {
			return fmt.Errorf("%w: TELEGRAM_WEBHOOK_URL", ErrMissingEnvironmentVariables)
		}
	case ModePolling:
	default:
		return fmt.Errorf("%w: telegram.mode %q", ErrInvalidConfig, c.Telegram.Mode)
	}

	switch c.Store.Driver {
	case DriverPostgres:
		if c.DB.URL == "" {
			return fmt.Errorf("%w: DATABASE_URL", ErrMissingEnvironmentVariables)
		}
	case DriverSQLite, DriverRedis:
	default:
		return fmt.Errorf("%w: store.driver %q", ErrInvalidConfig, c.Store.Driver)
	}

	if c.Ranking.Enabled && c.Telegram.DefaultChatID == 0 {
		return fmt.Errorf("%w: TELEGRAM_DEFAULT_CHAT_ID", ErrMissingEnvironmentVariables)
	}
	if c.Ranking.Limit < 0 {
		return fmt.Errorf("%w: ranking.limit must not be negative", ErrInvalidConfig)
	}
	if c.Ranking.MaxConcurrentResets < 1 {
		return fmt.Errorf("%w: ranking.max_concurrent_resets must be positive", ErrInvalidConfig)
	}

	return nil
}
