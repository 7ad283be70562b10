package signal

import "github.com/quantlab/papertrader/indicators"

func init() {
	RegisterBuy(rsiThreshold{id: RSIOversold, label: "RSI oversold (< 30)", below: true, level: 30})
	RegisterBuy(macdCross{id: MACDGoldenCross, label: "MACD golden cross", golden: true})
	RegisterBuy(bbBreach{id: BBLowerBreach, label: "Bollinger lower band breach", lower: true})

	RegisterSell(rsiThreshold{id: RSIOverbought, label: "RSI overbought (> 70)", below: false, level: 70})
	RegisterSell(macdCross{id: MACDDeadCross, label: "MACD dead cross", golden: false})
	RegisterSell(bbBreach{id: BBUpperBreach, label: "Bollinger upper band breach", lower: false})
}

type rsiThreshold struct {
	id    ID
	label string
	below bool
	level float64
}

func (r rsiThreshold) ID() ID        { return r.id }
func (r rsiThreshold) Label() string { return r.label }

func (r rsiThreshold) Evaluate(closes []float64) bool {
	rsi := indicators.RSI(closes, indicators.RSIPeriod)
	if r.below {
		return rsi < r.level
	}
	return rsi > r.level
}

type macdCross struct {
	id     ID
	label  string
	golden bool
}

func (m macdCross) ID() ID        { return m.id }
func (m macdCross) Label() string { return m.label }

// Evaluate fires on the bar where the MACD line crosses its signal
// line, not merely while it sits on one side.
func (m macdCross) Evaluate(closes []float64) bool {
	if len(closes) < 2 {
		return false
	}
	macd, sig := indicators.MACDLines(closes)
	last := len(closes) - 1

	if m.golden {
		return macd[last-1] <= sig[last-1] && macd[last] > sig[last]
	}
	return macd[last-1] >= sig[last-1] && macd[last] < sig[last]
}

type bbBreach struct {
	id    ID
	label string
	lower bool
}

func (b bbBreach) ID() ID        { return b.id }
func (b bbBreach) Label() string { return b.label }

func (b bbBreach) Evaluate(closes []float64) bool {
	upper, lower, ok := indicators.Bollinger(closes, indicators.BollingerPeriod, indicators.BollingerWidth)
	if !ok {
		return false
	}
	price := closes[len(closes)-1]
	if b.lower {
		return price < lower
	}
	return price > upper
}
