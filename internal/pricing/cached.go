package pricing

import (
	"context"
	"errors"
	"log"
	"time"

	"PortfolioRebalancer/internal/model"
)

// PriceCache is a ticker keyed price store.
type PriceCache interface {
	Lookup(ctx context.Context, ticker string) (float64, time.Time, error)
	Store(ctx context.Context, ticker string, price float64, ts time.Time) error
}

// DefaultCacheTimeout bounds each cache round trip when Timeout is unset.
const DefaultCacheTimeout = 5 * time.Second

// CachedSource answers from Cache while the entry is younger than TTL and
// otherwise asks Upstream, writing the result through. A zero TTL never
// expires entries. Timeout bounds the lookup and the store separately; the
// upstream call is bounded by its own client.
type CachedSource struct {
	Cache    PriceCache
	Upstream model.PriceSource
	TTL      time.Duration
	Timeout  time.Duration

	now func() time.Time
}

// NewCachedSource wraps upstream with cache.
func NewCachedSource(cache PriceCache, upstream model.PriceSource, ttl time.Duration) *CachedSource {
	return &CachedSource{
		Cache:    cache,
		Upstream: upstream,
		TTL:      ttl,
		Timeout:  DefaultCacheTimeout,
		now:      time.Now,
	}
}

func (s *CachedSource) Name() string { return "cached(" + Name(s.Upstream) + ")" }

func (s *CachedSource) GetPrice(ticker string) (float64, error) {
	price, ts, err := s.lookup(ticker)
	switch {
	case err == nil && (s.TTL <= 0 || s.clock().Sub(ts) < s.TTL):
		return price, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		log.Printf("[WARN] price cache lookup %s: %v", ticker, err)
	}

	price, err = s.Upstream.GetPrice(ticker)
	if err != nil {
		return 0, err
	}
	if err := s.store(ticker, price); err != nil {
		log.Printf("[WARN] price cache store %s: %v", ticker, err)
	}
	return price, nil
}

func (s *CachedSource) lookup(ticker string) (float64, time.Time, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout())
	defer cancel()
	return s.Cache.Lookup(ctx, ticker)
}

func (s *CachedSource) store(ticker string, price float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout())
	defer cancel()
	return s.Cache.Store(ctx, ticker, price, s.clock())
}

func (s *CachedSource) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultCacheTimeout
	}
	return s.Timeout
}

func (s *CachedSource) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
