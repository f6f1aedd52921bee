package pricing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// QuoteAPISource prices tickers with a REST quote endpoint:
// GET {BaseURL}/api/v1/quote?symbol=X returning {"price": n}.
type QuoteAPISource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewQuoteAPISource creates a new source with optional proxy support.
func NewQuoteAPISource(baseURL, apiKey, proxyURL string) *QuoteAPISource {
	return &QuoteAPISource{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (s *QuoteAPISource) Name() string { return "quote_api" }

func (s *QuoteAPISource) GetPrice(ticker string) (float64, error) {
	endpoint := fmt.Sprintf("%s/api/v1/quote?symbol=%s", s.BaseURL, url.QueryEscape(ticker))
	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return 0, err
	}
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch quote %s: %w", ticker, err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return 0, fmt.Errorf("quote %s: %w", ticker, ErrNotFound)
	default:
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("fetch quote %s: status %d, body: %s", ticker, resp.StatusCode, string(body))
	}
	var result struct {
		Price *float64 `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decode quote %s: %w", ticker, err)
	}
	if result.Price == nil {
		return 0, fmt.Errorf("quote %s: missing price", ticker)
	}
	return *result.Price, nil
}
