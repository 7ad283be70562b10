package market

import (
	"context"
	"errors"
	"time"
)

// ErrPriceUnavailable is returned when a symbol has no current quote.
var ErrPriceUnavailable = errors.New("price unavailable")

// ErrNoData is returned when a symbol/period has no historical data.
var ErrNoData = errors.New("no data available")

// Quote is a point-in-time price for a symbol.
type Quote struct {
	Symbol string
	Name   string
	Price  float64
	Time   time.Time
}

// PriceSource supplies current quotes and close-price history.
// Implementations must return ErrPriceUnavailable / ErrNoData (possibly
// wrapped) rather than zero values when data is missing.
type PriceSource interface {
	CurrentPrice(ctx context.Context, symbol string) (Quote, error)
	History(ctx context.Context, symbol string, days int) (PriceSeries, error)
}
