package backtest

import (
	"time"

	"github.com/quantlab/papertrader/ledger"
	"github.com/quantlab/papertrader/metrics"
)

// Result is produced once per run and never mutated afterwards.
type Result struct {
	Symbol         string                `json:"symbol"`
	Strategy       Strategy              `json:"strategy"`
	Start          time.Time             `json:"start_date"`
	End            time.Time             `json:"end_date"`
	InitialCapital float64               `json:"initial_capital"`
	FinalCapital   float64               `json:"final_capital"`
	Trades         []ledger.Trade        `json:"trades"`
	EquityCurve    []metrics.EquityPoint `json:"equity_curve"`
	Metrics        metrics.Metrics       `json:"metrics"`
}
