package model

// PriceSource resolves the current unit price of a ticker.
type PriceSource interface {
	GetPrice(ticker string) (float64, error)
}

// PriceSourceFunc adapts a plain function to PriceSource.
type PriceSourceFunc func(ticker string) (float64, error)

func (f PriceSourceFunc) GetPrice(ticker string) (float64, error) { return f(ticker) }

// Position is a held stock.
type Position struct {
	Ticker   string
	Quantity float64
	Price    PriceSource
}

// FallbackSource prices a ticker that is not currently held.
type FallbackSource struct {
	Ticker string
	Source PriceSource
}
