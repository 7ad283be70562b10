// Package backtest replays a historical price series through a
// single-position, long-only strategy and reports the trades, equity
// curve, and derived metrics. A run is a pure function of its inputs:
// identical series and strategy reproduce identical results.
package backtest

import (
	"fmt"

	"github.com/quantlab/papertrader/ledger"
	"github.com/quantlab/papertrader/market"
	"github.com/quantlab/papertrader/metrics"
	"github.com/quantlab/papertrader/signal"
)

// Strategy is the immutable parameter block for one run.
type Strategy struct {
	Name             string    `json:"name"`
	BuySignal        signal.ID `json:"buy_signal"`
	SellSignal       signal.ID `json:"sell_signal"`
	InitialCapital   float64   `json:"initial_capital"`
	TradeSizePercent float64   `json:"trade_size_percent"`
}

func (s Strategy) Validate() error {
	if s.InitialCapital <= 0 {
		return fmt.Errorf("initial capital %v: %w", s.InitialCapital, ledger.ErrInvalidArgument)
	}
	if s.TradeSizePercent <= 0 || s.TradeSizePercent > 100 {
		return fmt.Errorf("trade size percent %v: %w", s.TradeSizePercent, ledger.ErrInvalidArgument)
	}
	if _, err := signal.Buy(s.BuySignal); err != nil {
		return fmt.Errorf("%v: %w", err, ledger.ErrInvalidArgument)
	}
	if _, err := signal.Sell(s.SellSignal); err != nil {
		return fmt.Errorf("%v: %w", err, ledger.ErrInvalidArgument)
	}
	return nil
}

type Config struct {
	// WarmupBars is how many leading bars are consumed before the
	// first signal evaluation. A series shorter than the warm-up
	// produces a zero-trade result, not an error.
	WarmupBars int

	// MinTradeUnit is the smallest buyable amount; a sized buy below
	// it is skipped.
	MinTradeUnit float64

	// PeriodsPerYear annualizes the Sharpe ratio.
	PeriodsPerYear int
}

func DefaultConfig() Config {
	return Config{
		WarmupBars:     30,
		MinTradeUnit:   1e-8,
		PeriodsPerYear: metrics.PeriodsPerYearDaily,
	}
}

type Engine struct {
	cfg Config
}

// NewEngine normalizes cfg; a zero WarmupBars is honored (evaluate
// from the first bar), negative values fall back to defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.WarmupBars < 0 {
		cfg.WarmupBars = DefaultConfig().WarmupBars
	}
	if cfg.MinTradeUnit <= 0 {
		cfg.MinTradeUnit = DefaultConfig().MinTradeUnit
	}
	if cfg.PeriodsPerYear <= 0 {
		cfg.PeriodsPerYear = DefaultConfig().PeriodsPerYear
	}
	return &Engine{cfg: cfg}
}

// Run executes the replay loop. Signals are evaluated against the
// closes up to and including the current bar, never past it. While
// flat, only the buy signal is consulted; while holding, only the sell
// signal. One position at a time, entered with TradeSizePercent of
// current cash, exited by full liquidation. A position still open at
// series end stays open; final capital marks it to the last price.
func (e *Engine) Run(series market.PriceSeries, strat Strategy) (Result, error) {
	if err := strat.Validate(); err != nil {
		return Result{}, err
	}
	if series.Len() == 0 {
		return Result{}, fmt.Errorf("backtest %s: %w", series.Symbol, market.ErrNoData)
	}

	buyEval, _ := signal.Buy(strat.BuySignal)
	sellEval, _ := signal.Sell(strat.SellSignal)

	acct, err := ledger.NewAccount("backtest", strat.Name, strat.InitialCapital)
	if err != nil {
		return Result{}, err
	}

	closes := series.Closes()
	var (
		trades []ledger.Trade
		curve  []metrics.EquityPoint
	)

	for i := e.cfg.WarmupBars; i < len(closes); i++ {
		bar := series.Points[i]
		window := closes[:i+1]
		pos := acct.Position(series.Symbol)

		switch {
		case pos.Amount == 0 && buyEval.Evaluate(window):
			spend := acct.CashBalance * strat.TradeSizePercent / 100
			amount := spend / bar.Price
			if amount < e.cfg.MinTradeUnit {
				break
			}
			tr, err := ledger.ExecuteBuy(acct, series.Symbol, amount, bar.Price, bar.Time)
			if err != nil {
				return Result{}, fmt.Errorf("bar %d: %w", i, err)
			}
			trades = append(trades, tr)

		case pos.Amount > 0 && sellEval.Evaluate(window):
			tr, err := ledger.ExecuteSell(acct, series.Symbol, pos.Amount, bar.Price, bar.Time)
			if err != nil {
				return Result{}, fmt.Errorf("bar %d: %w", i, err)
			}
			trades = append(trades, tr)
		}

		curve = append(curve, metrics.EquityPoint{
			Time:  bar.Time,
			Value: acct.CashBalance + acct.Position(series.Symbol).Amount*bar.Price,
		})
	}

	finalCapital := strat.InitialCapital
	if len(curve) > 0 {
		finalCapital = curve[len(curve)-1].Value
	}

	return Result{
		Symbol:         series.Symbol,
		Strategy:       strat,
		Start:          series.Start(),
		End:            series.End(),
		InitialCapital: strat.InitialCapital,
		FinalCapital:   finalCapital,
		Trades:         trades,
		EquityCurve:    curve,
		Metrics:        metrics.Compute(trades, curve, strat.InitialCapital, e.cfg.PeriodsPerYear),
	}, nil
}
