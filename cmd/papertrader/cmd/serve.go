package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantlab/papertrader/api"
	"github.com/quantlab/papertrader/backtest"
	"github.com/quantlab/papertrader/paper"
	"github.com/quantlab/papertrader/pricefeed"
	"github.com/quantlab/papertrader/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve starts the paper-trading and backtesting HTTP API.

Accounts persist in SQLite by default; pass a config file to change
the store backend, listen address, or price feed settings.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	prices := newPriceFeed()
	svc := paper.NewService(st, prices, logger)
	engine := backtest.NewEngine(backtest.Config{
		WarmupBars:     cfg.Backtest.WarmupBars,
		PeriodsPerYear: cfg.Backtest.PeriodsPerYear,
	})

	readTimeout, _ := cfg.Server.ParseReadTimeout()
	writeTimeout, _ := cfg.Server.ParseWriteTimeout()
	server := api.NewServer(api.Config{
		Addr:         cfg.Server.Addr(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}, svc, engine, prices, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func openStore() (store.Store, error) {
	if cfg.Store.Type == "memory" {
		return store.NewMemory(), nil
	}
	return store.NewSQLite(cfg.Store.DBPath)
}

func newPriceFeed() *pricefeed.Client {
	opts := []pricefeed.Option{}
	if cfg.PriceFeed.BaseURL != "" {
		opts = append(opts, pricefeed.WithBaseURL(cfg.PriceFeed.BaseURL))
	}
	if ttl, err := cfg.PriceFeed.ParseQuoteTTL(); err == nil && ttl > 0 {
		opts = append(opts, pricefeed.WithQuoteTTL(ttl))
	}
	return pricefeed.NewClient(opts...)
}
