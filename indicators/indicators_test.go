package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSI(t *testing.T) {
	t.Parallel()

	t.Run("neutral when short", func(t *testing.T) {
		assert.Equal(t, 50.0, RSI([]float64{1, 2, 3}, 14))
	})

	t.Run("all gains is 100", func(t *testing.T) {
		closes := make([]float64, 20)
		for i := range closes {
			closes[i] = float64(100 + i)
		}
		assert.Equal(t, 100.0, RSI(closes, 14))
	})

	t.Run("all losses is 0", func(t *testing.T) {
		closes := make([]float64, 20)
		for i := range closes {
			closes[i] = float64(200 - i)
		}
		assert.InDelta(t, 0.0, RSI(closes, 14), 1e-9)
	})

	t.Run("balanced moves near 50", func(t *testing.T) {
		closes := make([]float64, 30)
		for i := range closes {
			closes[i] = 100
			if i%2 == 1 {
				closes[i] = 101
			}
		}
		assert.InDelta(t, 50.0, RSI(closes, 14), 10)
	})
}

func TestSMA(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, SMA([]float64{1, 2}, 3))
	assert.Equal(t, 2.0, SMA([]float64{1, 2, 3}, 3))
	assert.Equal(t, 4.0, SMA([]float64{1, 2, 3, 4, 5}, 3))
}

func TestEMASeriesConvergesToConstant(t *testing.T) {
	t.Parallel()

	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 42
	}
	out := EMASeries(closes, 12)
	require.Len(t, out, 50)
	assert.InDelta(t, 42.0, out[49], 1e-9)
}

func TestMACDLinesCrossOnTrendReversal(t *testing.T) {
	t.Parallel()

	// Downtrend then a sharp uptrend: MACD line should end up above its
	// signal line after the reversal.
	var closes []float64
	for i := 0; i < 40; i++ {
		closes = append(closes, 200-float64(i))
	}
	for i := 0; i < 20; i++ {
		closes = append(closes, 160+float64(i)*3)
	}

	macd, signal := MACDLines(closes)
	require.Len(t, macd, len(closes))
	require.Len(t, signal, len(closes))

	last := len(closes) - 1
	assert.Greater(t, macd[last], signal[last])
	assert.Less(t, macd[39], signal[39])
}

func TestBollinger(t *testing.T) {
	t.Parallel()

	t.Run("not enough data", func(t *testing.T) {
		_, _, ok := Bollinger([]float64{1, 2, 3}, 20, 2)
		assert.False(t, ok)
	})

	t.Run("constant series has zero width", func(t *testing.T) {
		closes := make([]float64, 25)
		for i := range closes {
			closes[i] = 100
		}
		upper, lower, ok := Bollinger(closes, 20, 2)
		require.True(t, ok)
		assert.Equal(t, 100.0, upper)
		assert.Equal(t, 100.0, lower)
	})

	t.Run("bands straddle the mean", func(t *testing.T) {
		closes := []float64{
			100, 102, 98, 101, 99, 103, 97, 100, 102, 98,
			101, 99, 103, 97, 100, 102, 98, 101, 99, 100,
		}
		upper, lower, ok := Bollinger(closes, 20, 2)
		require.True(t, ok)
		mean := SMA(closes, 20)
		assert.Greater(t, upper, mean)
		assert.Less(t, lower, mean)
	})
}
