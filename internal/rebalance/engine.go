package rebalance

import (
	"fmt"
	"math"

	"PortfolioRebalancer/internal/model"
)

// Portfolio is the input of one rebalancing computation.
type Portfolio struct {
	Positions   []model.Position
	Allocations model.AllocationTarget
}

// New creates a Portfolio.
func New(positions []model.Position, allocations model.AllocationTarget) *Portfolio {
	return &Portfolio{Positions: positions, Allocations: allocations}
}

// TotalValue sums quantity * price over held positions.
func (p *Portfolio) TotalValue() (total float64, err error) {
	defer recoverCritical("calculating total", &err)

	for _, pos := range p.Positions {
		if pos.Price == nil {
			return 0, fmt.Errorf("stock %s: %w", pos.Ticker, ErrNoPriceSource)
		}
		price, perr := pos.Price.GetPrice(pos.Ticker)
		if perr != nil {
			return 0, fmt.Errorf("stock %s: %w: %v", pos.Ticker, ErrPriceUnavailable, perr)
		}
		if math.IsNaN(pos.Quantity) || math.IsInf(pos.Quantity, 0) {
			return 0, fmt.Errorf("stock %s: %w: %v is not finite", pos.Ticker, ErrInvalidQuantity, pos.Quantity)
		}
		if pos.Quantity < 0 {
			return 0, fmt.Errorf("stock %s: %w: %v is negative", pos.Ticker, ErrInvalidQuantity, pos.Quantity)
		}
		if err := checkPrice(price); err != nil {
			return 0, fmt.Errorf("stock %s: %w", pos.Ticker, err)
		}
		total += pos.Quantity * price
	}
	return total, nil
}

// Project builds one record per allocation ticker, comparing current and
// target dollar value. A held ticker whose price cannot be resolved gets a
// record-level error instead of failing the projection.
func (p *Portfolio) Project() ([]model.ComputedRecord, error) {
	_, records, err := p.project()
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Resolve projects the portfolio and decides, per ticker, how many units to
// buy or sell. Tickers that are not held are priced through fallbacks.
func (p *Portfolio) Resolve(fallbacks []model.FallbackSource) ([]model.ComputedRecord, error) {
	_, records, err := p.resolve(fallbacks)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Plan is Resolve plus the total value the records were computed from.
func (p *Portfolio) Plan(fallbacks []model.FallbackSource) (*Plan, error) {
	total, records, err := p.resolve(fallbacks)
	if err != nil {
		return nil, err
	}
	return &Plan{TotalValue: total, Records: records}, nil
}

func (p *Portfolio) project() (total float64, records []model.ComputedRecord, err error) {
	total, err = p.TotalValue()
	if err != nil {
		return 0, nil, err
	}

	defer recoverCritical("computing stocks", &err)

	records = make([]model.ComputedRecord, 0, p.Allocations.Len())
	for _, a := range p.Allocations.Entries() {
		rec := model.ComputedRecord{
			Ticker:      a.Ticker,
			Allocation:  a.Weight,
			TargetValue: total * a.Weight,
			Action:      model.ActionNone,
		}
		if pos, ok := p.held(a.Ticker); ok {
			price, perr := lookup(pos.Price, pos.Ticker)
			if perr != nil {
				rec.Error = perr.Error()
			} else {
				rec.Quantity = pos.Quantity
				rec.UnitPrice = &price
				rec.CurrentValue = pos.Quantity * price
			}
		}
		records = append(records, rec)
	}
	return total, records, nil
}

func (p *Portfolio) resolve(fallbacks []model.FallbackSource) (total float64, records []model.ComputedRecord, err error) {
	total, records, err = p.project()
	if err != nil {
		return 0, nil, err
	}

	defer recoverCritical("getting rebalance", &err)

	for i := range records {
		rec := &records[i]
		if !rec.HasPrice() && !rec.HasError() {
			src, ok := findFallback(fallbacks, rec.Ticker)
			if !ok {
				rec.Error = msgNoPriceService
				continue
			}
			price, perr := lookup(src, rec.Ticker)
			if perr != nil {
				rec.Error = perr.Error()
				continue
			}
			rec.UnitPrice = &price
		}
		if rec.HasError() || !rec.HasPrice() {
			continue
		}
		decide(rec)
	}
	return total, records, nil
}

// decide fills Action and TradeQuantity from the record's delta. A delta or
// quantity that does not fit a non-negative int64 becomes a record error.
func decide(rec *model.ComputedRecord) {
	delta := rec.Delta()
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		rec.Error = msgBadDelta
		return
	}
	if delta == 0 {
		return
	}
	price := *rec.UnitPrice
	if price == 0 {
		rec.Error = msgZeroPrice
		return
	}
	units := math.Floor(math.Abs(delta) / price)
	if math.IsNaN(units) || units >= math.MaxInt64 {
		rec.Error = msgTradeRange
		return
	}
	rec.TradeQuantity = int64(units)
	switch {
	case delta > 0:
		rec.Action = model.ActionBuy
	case delta < 0:
		rec.Action = model.ActionSell
	}
}

// held returns the first position for ticker.
func (p *Portfolio) held(ticker string) (model.Position, bool) {
	for _, pos := range p.Positions {
		if pos.Ticker == ticker {
			return pos, true
		}
	}
	return model.Position{}, false
}

func findFallback(fallbacks []model.FallbackSource, ticker string) (model.PriceSource, bool) {
	for _, f := range fallbacks {
		if f.Ticker == ticker {
			return f.Source, f.Source != nil
		}
	}
	return nil, false
}

// lookup resolves and validates a price for a single record.
func lookup(src model.PriceSource, ticker string) (float64, error) {
	if src == nil {
		return 0, ErrNoPriceSource
	}
	price, err := src.GetPrice(ticker)
	if err != nil {
		return 0, err
	}
	if err := checkPrice(price); err != nil {
		return 0, err
	}
	return price, nil
}

func checkPrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("%w: %v is not finite", ErrInvalidPrice, price)
	}
	if price < 0 {
		return fmt.Errorf("%w: %v is negative", ErrInvalidPrice, price)
	}
	return nil
}

func recoverCritical(stage string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w %s: %v", ErrCritical, stage, r)
	}
}
