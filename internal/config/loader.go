package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLYWATCH_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYWATCH_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Polymarket.ClobHost, "POLYWATCH_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "POLYWATCH_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.WsHost, "POLYWATCH_POLYMARKET_WS_HOST")

	setStr(&cfg.Tracker.Query, "POLYWATCH_TRACKER_QUERY")
	setInt(&cfg.Tracker.SearchLimit, "POLYWATCH_TRACKER_SEARCH_LIMIT")
	setDuration(&cfg.Tracker.Refresh, "POLYWATCH_TRACKER_REFRESH")
	setDuration(&cfg.Tracker.ScanEvery, "POLYWATCH_TRACKER_SCAN_EVERY")
	setStr(&cfg.Tracker.Display, "POLYWATCH_TRACKER_DISPLAY")

	setBool(&cfg.Redis.Enabled, "POLYWATCH_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "POLYWATCH_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYWATCH_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYWATCH_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYWATCH_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POLYWATCH_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POLYWATCH_REDIS_TLS_ENABLED")

	setBool(&cfg.Postgres.Enabled, "POLYWATCH_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "POLYWATCH_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "POLYWATCH_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "POLYWATCH_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "POLYWATCH_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "POLYWATCH_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "POLYWATCH_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "POLYWATCH_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "POLYWATCH_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "POLYWATCH_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "POLYWATCH_POSTGRES_RUN_MIGRATIONS")

	setBool(&cfg.Feed.Enabled, "POLYWATCH_FEED_ENABLED")

	setStr(&cfg.Notify.TelegramToken, "POLYWATCH_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POLYWATCH_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "POLYWATCH_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "POLYWATCH_NOTIFY_EVENTS")

	setStr(&cfg.Mode, "POLYWATCH_MODE")
	setStr(&cfg.LogLevel, "POLYWATCH_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
