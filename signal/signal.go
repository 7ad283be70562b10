// Package signal defines the closed set of entry/exit conditions the
// backtester dispatches on. Each ID maps to an Evaluator that answers
// whether the condition holds at the latest bar of a close-price
// window; evaluators never see bars past the one under decision.
package signal

import (
	"fmt"
	"sort"
)

type ID string

const (
	RSIOversold     ID = "rsi_oversold"
	RSIOverbought   ID = "rsi_overbought"
	MACDGoldenCross ID = "macd_golden_cross"
	MACDDeadCross   ID = "macd_dead_cross"
	BBLowerBreach   ID = "bb_lower_breach"
	BBUpperBreach   ID = "bb_upper_breach"
)

// Evaluator reports whether its condition holds at the last element of
// closes. closes is the history up to and including the bar under
// decision, oldest first.
type Evaluator interface {
	ID() ID
	Label() string
	Evaluate(closes []float64) bool
}

// Info describes one signal for API consumers.
type Info struct {
	Value ID     `json:"value"`
	Label string `json:"label"`
}

var (
	buyRegistry  = make(map[ID]Evaluator)
	sellRegistry = make(map[ID]Evaluator)
)

// RegisterBuy and RegisterSell add an evaluator to the corresponding
// side. The stock signal set registers itself on package init; callers
// may add their own conditions under fresh IDs.
func RegisterBuy(e Evaluator)  { buyRegistry[e.ID()] = e }
func RegisterSell(e Evaluator) { sellRegistry[e.ID()] = e }

// Buy resolves a buy-side signal id to its evaluator.
func Buy(id ID) (Evaluator, error) {
	e, ok := buyRegistry[id]
	if !ok {
		return nil, fmt.Errorf("unknown buy signal %q", id)
	}
	return e, nil
}

// Sell resolves a sell-side signal id to its evaluator.
func Sell(id ID) (Evaluator, error) {
	e, ok := sellRegistry[id]
	if !ok {
		return nil, fmt.Errorf("unknown sell signal %q", id)
	}
	return e, nil
}

// BuySignals lists the available buy signals, stable order.
func BuySignals() []Info { return list(buyRegistry) }

// SellSignals lists the available sell signals, stable order.
func SellSignals() []Info { return list(sellRegistry) }

func list(reg map[ID]Evaluator) []Info {
	out := make([]Info, 0, len(reg))
	for _, e := range reg {
		out = append(out, Info{Value: e.ID(), Label: e.Label()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}
