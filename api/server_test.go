package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/papertrader/backtest"
	"github.com/quantlab/papertrader/ledger"
	"github.com/quantlab/papertrader/market"
	"github.com/quantlab/papertrader/paper"
	"github.com/quantlab/papertrader/signal"
	"github.com/quantlab/papertrader/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *market.Quotes) {
	t.Helper()

	quotes := market.NewQuotes()
	svc := paper.NewService(store.NewMemory(), quotes, zerolog.Nop())
	engine := backtest.NewEngine(backtest.Config{})

	srv := NewServer(Config{Addr: "127.0.0.1:0"}, svc, engine, quotes, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, quotes
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestBacktestStrategies(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/backtest/strategies", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got strategiesResponse
	require.NoError(t, json.Unmarshal(body, &got))
	values := func(infos []signal.Info) []string {
		out := make([]string, len(infos))
		for i, s := range infos {
			out[i] = string(s.Value)
		}
		return out
	}
	assert.Equal(t, []string{"bb_lower_breach", "macd_golden_cross", "rsi_oversold"}, values(got.BuySignals))
	assert.Equal(t, []string{"bb_upper_breach", "macd_dead_cross", "rsi_overbought"}, values(got.SellSignals))
}

// 14 falling bars push RSI to zero, firing the oversold buy; the
// rising tail pushes it to 100, firing the overbought sell.
func vShapedSeries(t *testing.T, symbol string) market.PriceSeries {
	t.Helper()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var points []market.PricePoint
	price := 100.0
	for i := 0; i < 20; i++ {
		points = append(points, market.PricePoint{Time: base.Add(time.Duration(i) * 24 * time.Hour), Price: price})
		price -= 1
	}
	for i := 20; i < 40; i++ {
		points = append(points, market.PricePoint{Time: base.Add(time.Duration(i) * 24 * time.Hour), Price: price})
		price += 2
	}
	series, err := market.NewSeries(symbol, points)
	require.NoError(t, err)
	return series
}

func TestBacktestRun(t *testing.T) {
	ts, quotes := newTestServer(t)
	quotes.SetSeries(vShapedSeries(t, "BTC"))

	req := backtestRequest{
		Symbol:     "BTC",
		PeriodDays: 40,
		Strategy: backtest.Strategy{
			Name:             "rsi swing",
			BuySignal:        "rsi_oversold",
			SellSignal:       "rsi_overbought",
			InitialCapital:   10000,
			TradeSizePercent: 100,
		},
	}
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/backtest/run", req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result backtest.Result
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "BTC", result.Symbol)
	assert.Equal(t, 10000.0, result.InitialCapital)
	require.NotEmpty(t, result.Trades)
	assert.Equal(t, ledger.Buy, result.Trades[0].Type)
	assert.NotEmpty(t, result.EquityCurve)
}

func TestBacktestRunErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	valid := backtest.Strategy{
		Name:             "s",
		BuySignal:        "rsi_oversold",
		SellSignal:       "rsi_overbought",
		InitialCapital:   1000,
		TradeSizePercent: 100,
	}

	t.Run("missing symbol", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/backtest/run", backtestRequest{Strategy: valid})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown signal", func(t *testing.T) {
		bad := valid
		bad.BuySignal = "astrology"
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/backtest/run", backtestRequest{Symbol: "BTC", Strategy: bad})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("no history", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/backtest/run", backtestRequest{Symbol: "BTC", Strategy: valid})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestAccountLifecycle(t *testing.T) {
	ts, quotes := newTestServer(t)
	quotes.Set(market.Quote{Symbol: "BTC", Price: 100})

	// Create.
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/accounts", createAccountRequest{Name: "alice", CashBalance: 10000})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var acct ledger.Account
	require.NoError(t, json.Unmarshal(body, &acct))
	assert.NotEmpty(t, acct.ID)
	assert.Equal(t, "alice", acct.Name)

	// List.
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/accounts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var accounts []ledger.Account
	require.NoError(t, json.Unmarshal(body, &accounts))
	assert.Len(t, accounts, 1)

	// Trade.
	resp, body = doJSON(t, http.MethodPost, ts.URL+"/accounts/"+acct.ID+"/trades", tradeRequest{Symbol: "BTC", Type: "buy", Amount: 10})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var tr ledger.Trade
	require.NoError(t, json.Unmarshal(body, &tr))
	assert.Equal(t, int64(1), tr.ID)
	assert.Equal(t, 1000.0, tr.Value)

	// Fetch shows the updated balance and position.
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/accounts/"+acct.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &acct))
	assert.InDelta(t, 9000.0, acct.CashBalance, 1e-9)
	assert.Contains(t, acct.Positions, "BTC")

	// Summary.
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/accounts/"+acct.ID+"/summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary paper.Summary
	require.NoError(t, json.Unmarshal(body, &summary))
	require.Len(t, summary.Holdings, 1)
	assert.InDelta(t, 10000.0, summary.TotalValue, 1e-9)

	// Transactions.
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/accounts/"+acct.ID+"/transactions?limit=10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var trades []ledger.Trade
	require.NoError(t, json.Unmarshal(body, &trades))
	assert.Len(t, trades, 1)

	// Delete.
	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/accounts/"+acct.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/accounts/"+acct.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	ts, quotes := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/accounts", createAccountRequest{Name: "alice", CashBalance: 100})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var acct ledger.Account
	require.NoError(t, json.Unmarshal(body, &acct))
	quotes.Set(market.Quote{Symbol: "BTC", Price: 50})

	cases := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{"negative balance", http.MethodPost, "/accounts", createAccountRequest{Name: "x", CashBalance: -1}, http.StatusBadRequest},
		{"unknown account", http.MethodGet, "/accounts/nope", nil, http.StatusNotFound},
		{"delete unknown account", http.MethodDelete, "/accounts/nope", nil, http.StatusNotFound},
		{"bad trade type", http.MethodPost, "/accounts/" + acct.ID + "/trades", tradeRequest{Symbol: "BTC", Type: "short", Amount: 1}, http.StatusBadRequest},
		{"insufficient funds", http.MethodPost, "/accounts/" + acct.ID + "/trades", tradeRequest{Symbol: "BTC", Type: "buy", Amount: 100}, http.StatusConflict},
		{"insufficient holdings", http.MethodPost, "/accounts/" + acct.ID + "/trades", tradeRequest{Symbol: "BTC", Type: "sell", Amount: 1}, http.StatusConflict},
		{"price unavailable", http.MethodPost, "/accounts/" + acct.ID + "/trades", tradeRequest{Symbol: "DOGE", Type: "buy", Amount: 1}, http.StatusBadGateway},
		{"bad limit", http.MethodGet, "/accounts/" + acct.ID + "/transactions?limit=lots", nil, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/nope", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := doJSON(t, tc.method, ts.URL+tc.path, tc.body)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			var errResp errorResponse
			require.NoError(t, json.Unmarshal(body, &errResp), "body: %s", body)
			assert.NotEmpty(t, errResp.Error)
		})
	}
}

func TestTransactionsOrder(t *testing.T) {
	ts, quotes := newTestServer(t)
	quotes.Set(market.Quote{Symbol: "ETH", Price: 10})

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/accounts", createAccountRequest{Name: "alice", CashBalance: 1000})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var acct ledger.Account
	require.NoError(t, json.Unmarshal(body, &acct))

	for i := 0; i < 3; i++ {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/accounts/"+acct.ID+"/trades", tradeRequest{Symbol: "ETH", Type: "buy", Amount: 1})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/accounts/%s/transactions?limit=2", ts.URL, acct.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var trades []ledger.Trade
	require.NoError(t, json.Unmarshal(body, &trades))
	require.Len(t, trades, 2)
	assert.Equal(t, int64(3), trades[0].ID)
	assert.Equal(t, int64(2), trades[1].ID)
}
