package pricing

import (
	"encoding/json"
	"fmt"
	"os"
)

// Table is a static ticker to price lookup.
type Table map[string]float64

func (t Table) Name() string { return "table" }

func (t Table) GetPrice(ticker string) (float64, error) {
	p, ok := t[ticker]
	if !ok {
		return 0, fmt.Errorf("stock not found in price table: %s: %w", ticker, ErrNotFound)
	}
	return p, nil
}

// LoadTable reads a JSON object of ticker to price.
func LoadTable(filePath string) (Table, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read price table: %w", err)
	}
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse price table %s: %w", filePath, err)
	}
	if t == nil {
		t = Table{}
	}
	return t, nil
}
