package rebalance

import "errors"

// Fatal errors abort the whole computation. Each is wrapped with the
// offending ticker where one is known.
var (
	ErrNoPriceSource    = errors.New("no price service provided")
	ErrPriceUnavailable = errors.New("price unavailable")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrCritical         = errors.New("critical error")
)

// Messages stored on a record when only that ticker is affected.
const (
	msgNoPriceService = "no price service provided"
	msgZeroPrice      = "cannot size trade at zero price"
	msgBadDelta       = "cannot size trade: value difference is not finite"
	msgTradeRange     = "cannot size trade: quantity out of range"
)
