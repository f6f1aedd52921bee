package model

// Action is the rebalancing decision for a ticker.
type Action string

const (
	ActionBuy  Action = "Buy"
	ActionSell Action = "Sell"
	ActionNone Action = "None"
)

// ComputedRecord holds everything computed for one allocation ticker.
type ComputedRecord struct {
	Ticker        string
	Allocation    float64
	Quantity      float64  // units held, 0 if not held
	UnitPrice     *float64 // nil until a price is resolved
	CurrentValue  float64  // Quantity * UnitPrice
	TargetValue   float64  // total value * Allocation
	Action        Action
	TradeQuantity int64
	Error         string
}

func (r ComputedRecord) HasPrice() bool { return r.UnitPrice != nil }
func (r ComputedRecord) HasError() bool { return r.Error != "" }

// Delta is the dollar amount missing (positive) or in excess (negative).
func (r ComputedRecord) Delta() float64 { return r.TargetValue - r.CurrentValue }

// Price returns the unit price, or 0 when unresolved.
func (r ComputedRecord) Price() float64 {
	if r.UnitPrice == nil {
		return 0
	}
	return *r.UnitPrice
}
