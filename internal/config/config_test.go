package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "PRICE_SOURCE", "PRICE_TABLE_FILE",
		"QUOTE_API_BASE_URL", "QUOTE_API_KEY", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"CRON_CHECK", "SQLITE_PATH", "HTTPS_PROXY",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sample = `
portfolio:
  positions:
    - ticker: APPL
      quantity: 100
    - ticker: META
      quantity: 80
  allocations:
    META: 0.4
    APPL: 0.6
prices:
  source: quote_api
  base_url: http://quotes.local
  cache_ttl: 5m
schedule:
  check_cron: "0 30 8 * * *"
`

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Portfolio.Positions) != 2 || cfg.Portfolio.Positions[1].Quantity != 80 {
		t.Errorf("unexpected positions: %+v", cfg.Portfolio.Positions)
	}
	if got := cfg.Portfolio.Allocations.Tickers(); !reflect.DeepEqual(got, []string{"META", "APPL"}) {
		t.Errorf("allocation order not preserved: %v", got)
	}
	if cfg.Prices.CacheTTL != 5*time.Minute {
		t.Errorf("expected 5m ttl, got %v", cfg.Prices.CacheTTL)
	}
	if cfg.Schedule.CheckCron != "0 30 8 * * *" {
		t.Errorf("unexpected cron %q", cfg.Schedule.CheckCron)
	}
	if cfg.Portfolio.Currency != "USD" || cfg.Database.SQLitePath != "data/rebalancer.db" {
		t.Errorf("defaults not applied: %q %q", cfg.Portfolio.Currency, cfg.Database.SQLitePath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Prices.Source != SourceTable || cfg.Prices.TableFile != "data/prices.json" {
		t.Errorf("unexpected defaults: %q %q", cfg.Prices.Source, cfg.Prices.TableFile)
	}
	if cfg.Schedule.CheckCron != "0 0 9 * * 1-5" {
		t.Errorf("unexpected default cron %q", cfg.Schedule.CheckCron)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error without allocations")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRICE_SOURCE", "yahoo")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SQLITE_PATH", "/tmp/r.db")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Prices.Source != SourceYahoo {
		t.Errorf("expected yahoo, got %q", cfg.Prices.Source)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 3 {
		t.Errorf("unexpected redis config: %+v", cfg.Redis)
	}
	if cfg.Database.SQLitePath != "/tmp/r.db" {
		t.Errorf("unexpected sqlite path %q", cfg.Database.SQLitePath)
	}
	if !cfg.TelegramEnabled() {
		t.Error("expected telegram enabled")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	if _, err := Load(writeConfig(t, "portfolio:\n  allocations:\n    APPL: half\n")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"unknown source", func(c *Config) { c.Prices.Source = "carrier-pigeon" }, "prices.source"},
		{"quote api without url", func(c *Config) { c.Prices.BaseURL = "" }, "base_url"},
		{"position without ticker", func(c *Config) { c.Portfolio.Positions[0].Ticker = "" }, "positions[0]"},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "tok" }, "telegram"},
	}
	for _, tt := range tests {
		cfg, err := Load(writeConfig(t, sample))
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		tt.mutate(cfg)
		err = cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tt.errSub) {
			t.Errorf("%s: expected error containing %q, got %v", tt.name, tt.errSub, err)
		}
	}
}

func TestAllocationWarnings(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "portfolio:\n  allocations:\n    APPL: 1.2\n    META: 0.3\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	w := cfg.AllocationWarnings()
	if len(w) != 2 {
		t.Fatalf("expected 2 warnings, got %v", w)
	}
	if !strings.Contains(w[0], "APPL") || !strings.Contains(w[1], "sum") {
		t.Errorf("unexpected warnings: %v", w)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loose allocations must not be rejected: %v", err)
	}
}

func TestAllocationWarnings_UntrackedPositionAndNaN(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, `portfolio:
  positions:
    - ticker: APPL
      quantity: 10
    - ticker: TSLA
      quantity: 2
  allocations:
    APPL: nan
    META: 0.5
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	w := strings.Join(cfg.AllocationWarnings(), "\n")
	if !strings.Contains(w, "allocation for APPL is NaN") {
		t.Errorf("expected NaN fraction warning, got:\n%s", w)
	}
	if !strings.Contains(w, "position TSLA has no target allocation") {
		t.Errorf("expected untracked position warning, got:\n%s", w)
	}
	if strings.Contains(w, "position APPL") {
		t.Errorf("APPL has a target, got:\n%s", w)
	}
}
