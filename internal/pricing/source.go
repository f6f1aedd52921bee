// Package pricing provides the PriceSource implementations the rebalancer
// can be wired with.
package pricing

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"PortfolioRebalancer/internal/model"
)

// ErrNotFound is returned when a source has no price for a ticker.
var ErrNotFound = errors.New("not found")

// Named is implemented by sources that can describe themselves in logs.
type Named interface {
	Name() string
}

// Name returns a printable name for any source.
func Name(src model.PriceSource) string {
	if n, ok := src.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", src)
}

// Bind pairs every ticker with the same source, building a fallback list.
func Bind(tickers []string, src model.PriceSource) []model.FallbackSource {
	out := make([]model.FallbackSource, 0, len(tickers))
	for _, t := range tickers {
		out = append(out, model.FallbackSource{Ticker: t, Source: src})
	}
	return out
}

// Mock returns controllable fixed prices for development and testing.
type Mock struct {
	Prices map[string]float64
	Errors map[string]error
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) GetPrice(ticker string) (float64, error) {
	if err, ok := m.Errors[ticker]; ok {
		return 0, err
	}
	if p, ok := m.Prices[ticker]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("mock: %s: %w", ticker, ErrNotFound)
}

// newHTTPClient builds a client with optional proxy support.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
