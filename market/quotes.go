package market

import (
	"context"
	"fmt"
	"sync"
)

// Quotes is an in-memory snapshot of the latest quote per symbol.
// It implements the CurrentPrice half of PriceSource and is safe for
// concurrent use.
type Quotes struct {
	mu     sync.RWMutex
	quotes map[string]Quote
	series map[string]PriceSeries
}

func NewQuotes() *Quotes {
	return &Quotes{
		quotes: make(map[string]Quote),
		series: make(map[string]PriceSeries),
	}
}

func (q *Quotes) Set(quote Quote) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.quotes[quote.Symbol] = quote
}

// SetSeries stores a canned history for a symbol, served by History.
func (q *Quotes) SetSeries(s PriceSeries) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.series[s.Symbol] = s
}

func (q *Quotes) CurrentPrice(ctx context.Context, symbol string) (Quote, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	quote, ok := q.quotes[symbol]
	if !ok {
		return Quote{}, fmt.Errorf("quote %s: %w", symbol, ErrPriceUnavailable)
	}
	return quote, nil
}

func (q *Quotes) History(ctx context.Context, symbol string, days int) (PriceSeries, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	s, ok := q.series[symbol]
	if !ok || s.Len() == 0 {
		return PriceSeries{}, fmt.Errorf("history %s: %w", symbol, ErrNoData)
	}
	return s, nil
}
