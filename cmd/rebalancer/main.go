package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PortfolioRebalancer/internal/config"
	"PortfolioRebalancer/internal/model"
	"PortfolioRebalancer/internal/notifier"
	"PortfolioRebalancer/internal/pricing"
	"PortfolioRebalancer/internal/rebalance"
	"PortfolioRebalancer/internal/recorder"
	"PortfolioRebalancer/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] PortfolioRebalancer starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init price source
	source, closeSource, err := newPriceSource(ctx, cfg)
	if err != nil {
		log.Fatalf("[FATAL] init price source: %v", err)
	}
	defer closeSource()
	log.Printf("[INFO] price source: %s", pricing.Name(source))

	// Build portfolio; every allocation ticker gets a fallback source
	positions := make([]model.Position, 0, len(cfg.Portfolio.Positions))
	for _, p := range cfg.Portfolio.Positions {
		positions = append(positions, model.Position{Ticker: p.Ticker, Quantity: p.Quantity, Price: source})
	}
	portfolio := rebalance.New(positions, cfg.Portfolio.Allocations)
	fallbacks := pricing.Bind(cfg.Portfolio.Allocations.Tickers(), source)

	// Init notifier
	var sender notifier.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	} else {
		log.Println("[INFO] telegram not configured, reporting to stdout")
		sender = notifier.NewConsole(os.Stdout)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	sched := scheduler.NewScheduler(ctx, portfolio, fallbacks, sender, rec, cfg.Portfolio.Currency)

	if os.Getenv("RUN_ONCE") == "true" {
		if _, err := sched.RunNow(); err != nil {
			rec.Close()
			closeSource()
			os.Exit(1)
		}
		return
	}

	if err := sched.Register(cfg.Schedule.CheckCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, running rebalance check now")
		go sched.RunNow()
	}

	log.Println("[INFO] PortfolioRebalancer is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] PortfolioRebalancer stopped")
}

// newPriceSource builds the configured source, wrapped in the Redis cache
// when one is configured. The returned func releases its resources.
func newPriceSource(ctx context.Context, cfg *config.Config) (model.PriceSource, func(), error) {
	var upstream model.PriceSource
	switch cfg.Prices.Source {
	case config.SourceTable:
		tbl, err := pricing.LoadTable(cfg.Prices.TableFile)
		if err != nil {
			return nil, nil, err
		}
		upstream = tbl
	case config.SourceYahoo:
		ys := pricing.NewYahooSource(cfg.Proxy)
		for k, v := range cfg.Prices.SymbolMap {
			ys.SymbolMap[k] = v
		}
		upstream = ys
	case config.SourceQuoteAPI:
		upstream = pricing.NewQuoteAPISource(cfg.Prices.BaseURL, cfg.Prices.APIKey, cfg.Proxy)
	default:
		return nil, nil, fmt.Errorf("unknown price source %q", cfg.Prices.Source)
	}

	if cfg.Redis.Addr == "" {
		return upstream, func() {}, nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cache, err := pricing.NewRedisCache(pingCtx, pricing.RedisConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		TLSEnabled: cfg.Redis.TLS,
	})
	if err != nil {
		log.Printf("[WARN] redis price cache unavailable, using %s directly: %v", pricing.Name(upstream), err)
		return upstream, func() {}, nil
	}
	closeCache := func() {
		if err := cache.Close(); err != nil {
			log.Printf("[ERROR] close redis: %v", err)
		}
	}
	return pricing.NewCachedSource(cache, upstream, cfg.Prices.CacheTTL), closeCache, nil
}
