package pricing

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection parameters for the price cache.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	TLSEnabled bool
}

// RedisCache stores prices in Redis hashes at "price:{ticker}" with fields
// "price" and "ts" (Unix nanoseconds).
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &RedisCache{rdb: rdb}, nil
}

func priceKey(ticker string) string {
	return "price:" + ticker
}

// Store saves the latest price and its timestamp for a ticker.
func (c *RedisCache) Store(ctx context.Context, ticker string, price float64, ts time.Time) error {
	fields := map[string]interface{}{
		"price": strconv.FormatFloat(price, 'f', -1, 64),
		"ts":    strconv.FormatInt(ts.UnixNano(), 10),
	}
	if err := c.rdb.HSet(ctx, priceKey(ticker), fields).Err(); err != nil {
		return fmt.Errorf("redis: set price %s: %w", ticker, err)
	}
	return nil
}

// Lookup returns the cached price and when it was stored, or ErrNotFound.
func (c *RedisCache) Lookup(ctx context.Context, ticker string) (float64, time.Time, error) {
	vals, err := c.rdb.HGetAll(ctx, priceKey(ticker)).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: get price %s: %w", ticker, err)
	}
	priceStr, ok := vals["price"]
	if !ok {
		return 0, time.Time{}, ErrNotFound
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse price %s: %w", ticker, err)
	}
	tsStr, ok := vals["ts"]
	if !ok {
		return 0, time.Time{}, ErrNotFound
	}
	tsNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse ts %s: %w", ticker, err)
	}
	return price, time.Unix(0, tsNano), nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

var _ PriceCache = (*RedisCache)(nil)
