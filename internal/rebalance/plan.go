package rebalance

import "PortfolioRebalancer/internal/model"

// Plan is a resolved rebalance together with the portfolio value it was
// computed from.
type Plan struct {
	TotalValue float64
	Records    []model.ComputedRecord
}

// Buys returns the records with a Buy action.
func (p *Plan) Buys() []model.ComputedRecord { return p.filter(model.ActionBuy) }

// Sells returns the records with a Sell action.
func (p *Plan) Sells() []model.ComputedRecord { return p.filter(model.ActionSell) }

// Failed returns the records whose price could not be resolved.
func (p *Plan) Failed() []model.ComputedRecord {
	var out []model.ComputedRecord
	for _, r := range p.Records {
		if r.HasError() {
			out = append(out, r)
		}
	}
	return out
}

// NetCash is the cash needed to execute the plan: cost of buys minus
// proceeds of sells. Negative means the plan frees cash.
func (p *Plan) NetCash() float64 {
	net := 0.0
	for _, r := range p.Records {
		amount := float64(r.TradeQuantity) * r.Price()
		switch r.Action {
		case model.ActionBuy:
			net += amount
		case model.ActionSell:
			net -= amount
		}
	}
	return net
}

// AllocationSum adds up the target fractions of all records.
func (p *Plan) AllocationSum() float64 {
	sum := 0.0
	for _, r := range p.Records {
		sum += r.Allocation
	}
	return sum
}

func (p *Plan) filter(action model.Action) []model.ComputedRecord {
	var out []model.ComputedRecord
	for _, r := range p.Records {
		if r.Action == action {
			out = append(out, r)
		}
	}
	return out
}
