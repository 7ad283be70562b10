package market

import (
	"fmt"
	"time"
)

// PricePoint is one bar of a close-price history.
type PricePoint struct {
	Time  time.Time `json:"timestamp"`
	Price float64   `json:"price"`
}

// PriceSeries is a timestamp-ascending sequence of price points.
// Use NewSeries to get ordering and positivity checked up front.
type PriceSeries struct {
	Symbol string
	Points []PricePoint
}

// NewSeries validates points and returns a PriceSeries. Points must be
// strictly ascending in time (duplicate timestamps rejected) and every
// price must be positive.
func NewSeries(symbol string, points []PricePoint) (PriceSeries, error) {
	for i, p := range points {
		if p.Price <= 0 {
			return PriceSeries{}, fmt.Errorf("series %s: non-positive price %v at index %d", symbol, p.Price, i)
		}
		if i > 0 && !points[i-1].Time.Before(p.Time) {
			return PriceSeries{}, fmt.Errorf("series %s: timestamps not strictly ascending at index %d", symbol, i)
		}
	}
	return PriceSeries{Symbol: symbol, Points: points}, nil
}

func (s PriceSeries) Len() int { return len(s.Points) }

// Closes returns just the close prices, oldest first. The slice is a copy;
// callers may truncate it freely for windowed indicator math.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// Start and End report the covered time range. Zero times on an empty series.
func (s PriceSeries) Start() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[0].Time
}

func (s PriceSeries) End() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Time
}
