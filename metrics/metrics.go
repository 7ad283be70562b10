// Package metrics derives performance statistics from a trade log and
// an equity curve. Everything here is a pure function of its inputs;
// nothing is cached or stored. Stats whose denominator is zero are nil
// rather than NaN so callers and JSON consumers can tell "no data"
// from "zero".
package metrics

import (
	"math"
	"time"

	"github.com/quantlab/papertrader/ledger"
)

// PeriodsPerYearDaily annualizes Sharpe for one-bar-per-day series.
// Crypto trades every day of the year.
const PeriodsPerYearDaily = 365

// EquityPoint is the mark-to-market total account value at one instant.
type EquityPoint struct {
	Time  time.Time `json:"timestamp"`
	Value float64   `json:"value"`
}

type Metrics struct {
	TotalTrades              int      `json:"total_trades"`
	WinningTrades            int      `json:"winning_trades"`
	LosingTrades             int      `json:"losing_trades"`
	WinRate                  *float64 `json:"win_rate"`
	TotalReturn              float64  `json:"total_return"`
	TotalReturnPercent       float64  `json:"total_return_percent"`
	MaxDrawdown              float64  `json:"max_drawdown"`
	SharpeRatio              *float64 `json:"sharpe_ratio"`
	AvgProfitPerTrade        *float64 `json:"avg_profit_per_trade"`
	AvgProfitPerWinningTrade *float64 `json:"avg_profit_per_winning_trade"`
	AvgLossPerLosingTrade    *float64 `json:"avg_loss_per_losing_trade"`
}

// Compute derives Metrics from trades and an equity curve. A trade
// counts as closed only when it is a sell; buys carry no P&L. The
// final capital is the last equity point, or initialCapital when the
// curve is empty.
func Compute(trades []ledger.Trade, equity []EquityPoint, initialCapital float64, periodsPerYear int) Metrics {
	m := Metrics{}

	var winSum, lossSum float64
	for _, t := range trades {
		if t.Type != ledger.Sell || t.ProfitLoss == nil {
			continue
		}
		m.TotalTrades++
		if *t.ProfitLoss >= 0 {
			m.WinningTrades++
			winSum += *t.ProfitLoss
		} else {
			m.LosingTrades++
			lossSum += *t.ProfitLoss
		}
	}

	if m.TotalTrades > 0 {
		m.WinRate = ptr(float64(m.WinningTrades) / float64(m.TotalTrades) * 100)
	}

	finalCapital := initialCapital
	if len(equity) > 0 {
		finalCapital = equity[len(equity)-1].Value
	}
	m.TotalReturn = finalCapital - initialCapital
	if initialCapital > 0 {
		m.TotalReturnPercent = m.TotalReturn / initialCapital * 100
	}

	m.MaxDrawdown = maxDrawdown(equity)
	m.SharpeRatio = sharpe(equity, periodsPerYear)

	if m.TotalTrades > 0 {
		m.AvgProfitPerTrade = ptr(m.TotalReturn / float64(m.TotalTrades))
	}
	if m.WinningTrades > 0 {
		m.AvgProfitPerWinningTrade = ptr(winSum / float64(m.WinningTrades))
	}
	if m.LosingTrades > 0 {
		m.AvgLossPerLosingTrade = ptr(lossSum / float64(m.LosingTrades))
	}

	return m
}

// maxDrawdown is the largest peak-to-trough percentage decline,
// computed in one pass tracking the running peak. Reported positive.
func maxDrawdown(equity []EquityPoint) float64 {
	if len(equity) == 0 {
		return 0
	}

	peak := equity[0].Value
	maxDD := 0.0
	for _, p := range equity {
		if p.Value > peak {
			peak = p.Value
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - p.Value) / peak * 100
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// sharpe is the mean per-bar return over its sample standard
// deviation, annualized by sqrt(periodsPerYear). nil with fewer than
// two equity points or zero variance.
func sharpe(equity []EquityPoint, periodsPerYear int) *float64 {
	if len(equity) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev == 0 {
			return nil
		}
		returns = append(returns, equity[i].Value/prev-1)
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	if len(returns) < 2 {
		return nil
	}
	variance /= float64(len(returns) - 1)
	if variance == 0 {
		return nil
	}

	s := mean / math.Sqrt(variance) * math.Sqrt(float64(periodsPerYear))
	return &s
}

func ptr(v float64) *float64 { return &v }
