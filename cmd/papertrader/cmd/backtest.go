package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantlab/papertrader/backtest"
	"github.com/quantlab/papertrader/signal"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a strategy backtest against historical prices",
	Long: `Backtest replays daily CoinGecko close prices through a buy/sell
signal pair and reports the trades and performance metrics.

Example:
  papertrader backtest -y BTC -d 90 --buy rsi_oversold --sell rsi_overbought`,
	RunE: runBacktestCmd,
}

var (
	btSymbol   string
	btDays     int
	btBuy      string
	btSell     string
	btCapital  float64
	btSizePct  float64
	btAsJSON   bool
	btListOnly bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btSymbol, "symbol", "y", "BTC", "coin symbol")
	backtestCmd.Flags().IntVarP(&btDays, "days", "d", 90, "history window in days")
	backtestCmd.Flags().StringVar(&btBuy, "buy", "rsi_oversold", "buy signal id")
	backtestCmd.Flags().StringVar(&btSell, "sell", "rsi_overbought", "sell signal id")
	backtestCmd.Flags().Float64VarP(&btCapital, "capital", "b", 10_000, "initial capital in USD")
	backtestCmd.Flags().Float64Var(&btSizePct, "size", 100, "percent of cash per buy")
	backtestCmd.Flags().BoolVar(&btAsJSON, "json", false, "emit the full result as JSON")
	backtestCmd.Flags().BoolVar(&btListOnly, "list-signals", false, "list available signals and exit")
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	if btListOnly {
		fmt.Println("Buy signals:")
		for _, s := range signal.BuySignals() {
			fmt.Printf("  %-20s %s\n", s.Value, s.Label)
		}
		fmt.Println("Sell signals:")
		for _, s := range signal.SellSignals() {
			fmt.Printf("  %-20s %s\n", s.Value, s.Label)
		}
		return nil
	}

	strat := backtest.Strategy{
		Name:             fmt.Sprintf("%s/%s", btBuy, btSell),
		BuySignal:        signal.ID(btBuy),
		SellSignal:       signal.ID(btSell),
		InitialCapital:   btCapital,
		TradeSizePercent: btSizePct,
	}
	if err := strat.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	series, err := newPriceFeed().History(ctx, btSymbol, btDays)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	engine := backtest.NewEngine(backtest.Config{
		WarmupBars:     cfg.Backtest.WarmupBars,
		PeriodsPerYear: cfg.Backtest.PeriodsPerYear,
	})
	result, err := engine.Run(series, strat)
	if err != nil {
		return fmt.Errorf("run backtest: %w", err)
	}

	if btAsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(result)
	return nil
}

func printResult(r backtest.Result) {
	fmt.Printf("Backtest %s (%s)\n", r.Symbol, r.Strategy.Name)
	fmt.Printf("  Period: %s to %s\n", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	fmt.Printf("  Initial Capital: $%.2f\n", r.InitialCapital)
	fmt.Printf("  Final Capital:   $%.2f\n", r.FinalCapital)
	fmt.Printf("  Total Return:    $%.2f (%.2f%%)\n", r.Metrics.TotalReturn, r.Metrics.TotalReturnPercent)
	fmt.Printf("  Trades: %d (%d wins, %d losses)\n", r.Metrics.TotalTrades, r.Metrics.WinningTrades, r.Metrics.LosingTrades)
	if r.Metrics.WinRate != nil {
		fmt.Printf("  Win Rate: %.1f%%\n", *r.Metrics.WinRate)
	}
	fmt.Printf("  Max Drawdown: %.2f%%\n", r.Metrics.MaxDrawdown)
	if r.Metrics.SharpeRatio != nil {
		fmt.Printf("  Sharpe Ratio: %.2f\n", *r.Metrics.SharpeRatio)
	}
}
