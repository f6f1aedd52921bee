package pricing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooSource prices tickers with the Yahoo Finance chart API.
type YahooSource struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps portfolio ticker to Yahoo ticker
}

// NewYahooSource creates a Yahoo Finance source with optional proxy support.
func NewYahooSource(proxyURL string) *YahooSource {
	return &YahooSource{
		BaseURL:   yahooBaseURL,
		Client:    newHTTPClient(proxyURL),
		SymbolMap: map[string]string{},
	}
}

func (s *YahooSource) Name() string { return "yahoo" }

func (s *YahooSource) yahooSymbol(ticker string) string {
	if mapped, ok := s.SymbolMap[ticker]; ok {
		return mapped
	}
	return ticker
}

// yahooChart is the subset of the chart API response used for quotes.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string   `json:"currency"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// GetPrice returns the regular market price, falling back to the last
// non-null close.
func (s *YahooSource) GetPrice(ticker string) (float64, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=5d",
		s.BaseURL, url.PathEscape(s.yahooSymbol(ticker)))

	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("yahoo fetch %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("yahoo: %s: %w", ticker, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return 0, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return 0, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return 0, fmt.Errorf("yahoo: %s: %w", ticker, ErrNotFound)
	}

	result := chart.Chart.Result[0]
	if p := result.Meta.RegularMarketPrice; p != nil {
		return *p, nil
	}
	if len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if c := toFloat(closes[i]); c != 0 {
				return c, nil
			}
		}
	}
	return 0, fmt.Errorf("yahoo: no price data for %s", ticker)
}
