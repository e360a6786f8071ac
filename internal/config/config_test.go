package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Mode != "watch" {
		t.Errorf("default mode = %q, want watch", cfg.Mode)
	}
	if cfg.Tracker.Refresh.Duration != 5*time.Second {
		t.Errorf("default refresh = %v, want 5s", cfg.Tracker.Refresh.Duration)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
mode = "once"

[tracker]
query = "Ethereum Up or Down"
refresh = "2s"
scan_every = "1m"
display = "compact"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "once" {
		t.Errorf("mode = %q, want once", cfg.Mode)
	}
	if cfg.Tracker.Query != "Ethereum Up or Down" {
		t.Errorf("query = %q", cfg.Tracker.Query)
	}
	if cfg.Tracker.Refresh.Duration != 2*time.Second {
		t.Errorf("refresh = %v, want 2s", cfg.Tracker.Refresh.Duration)
	}
	if cfg.Tracker.ScanEvery.Duration != time.Minute {
		t.Errorf("scan_every = %v, want 1m", cfg.Tracker.ScanEvery.Duration)
	}
	// Untouched sections keep defaults.
	if cfg.Polymarket.GammaHost != "https://gamma-api.polymarket.com" {
		t.Errorf("gamma_host = %q, want default", cfg.Polymarket.GammaHost)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("merged config should validate: %v", err)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("POLYWATCH_TRACKER_QUERY", "Solana Up or Down")
	t.Setenv("POLYWATCH_TRACKER_REFRESH", "3s")
	t.Setenv("POLYWATCH_REDIS_ENABLED", "true")
	t.Setenv("POLYWATCH_NOTIFY_EVENTS", "tracking, heartbeat")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tracker.Query != "Solana Up or Down" {
		t.Errorf("query = %q", cfg.Tracker.Query)
	}
	if cfg.Tracker.Refresh.Duration != 3*time.Second {
		t.Errorf("refresh = %v, want 3s", cfg.Tracker.Refresh.Duration)
	}
	if !cfg.Redis.Enabled {
		t.Error("redis.enabled override not applied")
	}
	if len(cfg.Notify.Events) != 2 || cfg.Notify.Events[1] != "heartbeat" {
		t.Errorf("notify.events = %v", cfg.Notify.Events)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad mode", func(c *Config) { c.Mode = "trade" }, "unknown mode"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "unknown log_level"},
		{"empty query", func(c *Config) { c.Tracker.Query = " " }, "query must not be empty"},
		{"scan shorter than refresh", func(c *Config) {
			c.Tracker.ScanEvery = duration{time.Second}
		}, "scan_every"},
		{"bad display", func(c *Config) { c.Tracker.Display = "fancy" }, "unknown display"},
		{"feed without redis", func(c *Config) { c.Feed.Enabled = true }, "requires redis"},
		{"half telegram", func(c *Config) { c.Notify.TelegramToken = "tok" }, "telegram"},
		{"redis no addr", func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.Addr = ""
		}, "redis: addr"},
		{"postgres no database", func(c *Config) {
			c.Postgres.Enabled = true
			c.Postgres.Database = ""
		}, "postgres: database"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}
