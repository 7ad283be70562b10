package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pts(start time.Time, prices ...float64) []PricePoint {
	out := make([]PricePoint, len(prices))
	for i, p := range prices {
		out[i] = PricePoint{Time: start.Add(time.Duration(i) * 24 * time.Hour), Price: p}
	}
	return out
}

func TestNewSeries(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		s, err := NewSeries("BTC", pts(t0, 100, 120, 90))
		require.NoError(t, err)
		assert.Equal(t, 3, s.Len())
		assert.Equal(t, []float64{100, 120, 90}, s.Closes())
		assert.Equal(t, t0, s.Start())
		assert.Equal(t, t0.Add(48*time.Hour), s.End())
	})

	t.Run("duplicate timestamp rejected", func(t *testing.T) {
		points := pts(t0, 100, 120)
		points[1].Time = points[0].Time
		_, err := NewSeries("BTC", points)
		assert.Error(t, err)
	})

	t.Run("descending timestamp rejected", func(t *testing.T) {
		points := pts(t0, 100, 120)
		points[1].Time = points[0].Time.Add(-time.Hour)
		_, err := NewSeries("BTC", points)
		assert.Error(t, err)
	})

	t.Run("non-positive price rejected", func(t *testing.T) {
		_, err := NewSeries("BTC", pts(t0, 100, 0))
		assert.Error(t, err)
	})

	t.Run("empty series ok", func(t *testing.T) {
		s, err := NewSeries("BTC", nil)
		require.NoError(t, err)
		assert.Equal(t, 0, s.Len())
		assert.True(t, s.Start().IsZero())
	})
}

func TestQuotes(t *testing.T) {
	t.Parallel()

	q := NewQuotes()
	ctx := context.Background()

	_, err := q.CurrentPrice(ctx, "BTC")
	assert.ErrorIs(t, err, ErrPriceUnavailable)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	q.Set(Quote{Symbol: "BTC", Name: "Bitcoin", Price: 65000, Time: now})

	quote, err := q.CurrentPrice(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, 65000.0, quote.Price)

	_, err = q.History(ctx, "BTC", 30)
	assert.ErrorIs(t, err, ErrNoData)

	s, err := NewSeries("BTC", pts(now, 100, 110))
	require.NoError(t, err)
	q.SetSeries(s)

	got, err := q.History(ctx, "BTC", 30)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}
