package config

import (
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"PortfolioRebalancer/internal/model"
)

// Price source kinds.
const (
	SourceTable    = "table"
	SourceYahoo    = "yahoo"
	SourceQuoteAPI = "quote_api"
)

// PositionConfig is one held stock as written in the config file.
type PositionConfig struct {
	Ticker   string  `yaml:"ticker"`
	Quantity float64 `yaml:"quantity"`
}

// Config holds all application configuration.
type Config struct {
	Portfolio struct {
		Positions   []PositionConfig       `yaml:"positions"`
		Allocations model.AllocationTarget `yaml:"allocations"`
		Currency    string                 `yaml:"currency"`
	} `yaml:"portfolio"`
	Prices struct {
		Source    string            `yaml:"source"`
		TableFile string            `yaml:"table_file"`
		BaseURL   string            `yaml:"base_url"`
		APIKey    string            `yaml:"api_key"`
		SymbolMap map[string]string `yaml:"symbol_map"`
		CacheTTL  time.Duration     `yaml:"cache_ttl"`
	} `yaml:"prices"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TLS      bool   `yaml:"tls"`
	} `yaml:"redis"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		CheckCron string `yaml:"check_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then defaults. A missing file yields an empty config.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("PRICE_SOURCE"); v != "" {
		cfg.Prices.Source = v
	}
	if v := os.Getenv("PRICE_TABLE_FILE"); v != "" {
		cfg.Prices.TableFile = v
	}
	if v := os.Getenv("QUOTE_API_BASE_URL"); v != "" {
		cfg.Prices.BaseURL = v
	}
	if v := os.Getenv("QUOTE_API_KEY"); v != "" {
		cfg.Prices.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("CRON_CHECK"); v != "" {
		cfg.Schedule.CheckCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Portfolio.Currency == "" {
		cfg.Portfolio.Currency = "USD"
	}
	if cfg.Prices.Source == "" {
		cfg.Prices.Source = SourceTable
	}
	if cfg.Prices.TableFile == "" {
		cfg.Prices.TableFile = "data/prices.json"
	}
	if cfg.Prices.CacheTTL == 0 {
		cfg.Prices.CacheTTL = 15 * time.Minute
	}
	if cfg.Schedule.CheckCron == "" {
		cfg.Schedule.CheckCron = "0 0 9 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/rebalancer.db"
	}

	return cfg, nil
}

// Validate checks required fields and warns about loose allocations.
func (c *Config) Validate() error {
	switch c.Prices.Source {
	case SourceTable:
		if c.Prices.TableFile == "" {
			return fmt.Errorf("prices.table_file is required for the table source")
		}
	case SourceYahoo:
	case SourceQuoteAPI:
		if c.Prices.BaseURL == "" {
			return fmt.Errorf("prices.base_url is required for the quote_api source")
		}
	default:
		return fmt.Errorf("prices.source %q is not one of table, yahoo, quote_api", c.Prices.Source)
	}
	if c.Portfolio.Allocations.Len() == 0 {
		return fmt.Errorf("portfolio.allocations must list at least one ticker")
	}
	for i, p := range c.Portfolio.Positions {
		if p.Ticker == "" {
			return fmt.Errorf("portfolio.positions[%d].ticker is required", i)
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}

	for _, w := range c.AllocationWarnings() {
		log.Printf("[WARN] %s", w)
	}
	return nil
}

// AllocationWarnings reports fractions outside [0,1], a total that is not 1
// and held tickers without a target. These are not rejected.
func (c *Config) AllocationWarnings() []string {
	var warnings []string
	for _, a := range c.Portfolio.Allocations.Entries() {
		if math.IsNaN(a.Weight) || a.Weight < 0 || a.Weight > 1 {
			warnings = append(warnings, fmt.Sprintf("allocation for %s is %v, outside [0,1]", a.Ticker, a.Weight))
		}
	}
	if sum := c.Portfolio.Allocations.Sum(); math.Abs(sum-1) > 1e-9 {
		warnings = append(warnings, fmt.Sprintf("allocations sum to %v, not 1", sum))
	}
	for _, p := range c.Portfolio.Positions {
		if _, ok := c.Portfolio.Allocations.Get(p.Ticker); !ok {
			warnings = append(warnings, fmt.Sprintf("position %s has no target allocation and is left untouched", p.Ticker))
		}
	}
	return warnings
}

// TelegramEnabled reports whether Telegram delivery is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
