// Package indicators provides the technical analysis math the signal
// evaluators consume. All functions operate on close-price windows,
// oldest first, and are deterministic.
package indicators

import "math"

// Standard periods used by the stock signal set.
const (
	RSIPeriod       = 14
	MACDFastPeriod  = 12
	MACDSlowPeriod  = 26
	MACDSignalSpan  = 9
	BollingerPeriod = 20
	BollingerWidth  = 2.0
)

// RSI returns the relative strength index over the trailing period.
// With fewer than period+1 closes it reports the neutral value 50.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}

	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// SMA returns the simple moving average of the trailing period, or 0
// when there is not enough data.
func SMA(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period {
		return 0
	}
	sum := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(period)
}

// EMASeries returns the exponential moving average at every index,
// seeded with the SMA of the first period values. Indexes before
// period-1 carry the running seed average.
func EMASeries(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period <= 0 || len(closes) == 0 {
		return out
	}

	multiplier := 2.0 / float64(period+1)

	sum := 0.0
	for i, c := range closes {
		if i < period {
			sum += c
			out[i] = sum / float64(i+1)
			continue
		}
		out[i] = (c-out[i-1])*multiplier + out[i-1]
	}
	return out
}

// MACDLines returns the MACD line (fast EMA minus slow EMA) and its
// signal line (EMA of the MACD line) aligned with the input closes.
func MACDLines(closes []float64) (macd, signal []float64) {
	fast := EMASeries(closes, MACDFastPeriod)
	slow := EMASeries(closes, MACDSlowPeriod)

	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = fast[i] - slow[i]
	}
	signal = EMASeries(macd, MACDSignalSpan)
	return macd, signal
}

// Bollinger returns the upper and lower bands over the trailing period.
// ok is false when there is not enough data for a meaningful band.
func Bollinger(closes []float64, period int, width float64) (upper, lower float64, ok bool) {
	if period <= 1 || len(closes) < period {
		return 0, 0, false
	}

	mean := SMA(closes, period)
	var variance float64
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(period))

	return mean + width*stddev, mean - width*stddev, true
}
