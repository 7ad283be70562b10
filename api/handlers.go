package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/quantlab/papertrader/backtest"
	"github.com/quantlab/papertrader/ledger"
	"github.com/quantlab/papertrader/market"
	"github.com/quantlab/papertrader/signal"
	"github.com/quantlab/papertrader/store"
)

// DefaultBacktestDays is the history window used when a backtest
// request omits period_days.
const DefaultBacktestDays = 90

type backtestRequest struct {
	Symbol     string            `json:"symbol"`
	PeriodDays int               `json:"period_days"`
	Strategy   backtest.Strategy `json:"strategy"`
}

type strategiesResponse struct {
	BuySignals  []signal.Info `json:"buy_signals"`
	SellSignals []signal.Info `json:"sell_signals"`
}

type createAccountRequest struct {
	Name        string  `json:"name"`
	CashBalance float64 `json:"cash_balance"`
}

type tradeRequest struct {
	Symbol string  `json:"symbol"`
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBacktestRun(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if req.PeriodDays <= 0 {
		req.PeriodDays = DefaultBacktestDays
	}
	if err := req.Strategy.Validate(); err != nil {
		s.writeErr(w, r, err)
		return
	}

	series, err := s.prices.History(r.Context(), req.Symbol, req.PeriodDays)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	result, err := s.engine.Run(series, req.Strategy)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBacktestStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, strategiesResponse{
		BuySignals:  signal.BuySignals(),
		SellSignals: signal.SellSignals(),
	})
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		req.Name = "My Account"
	}

	acct, err := s.paper.CreateAccount(r.Context(), req.Name, req.CashBalance)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.paper.ListAccounts(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.paper.GetAccount(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.paper.DeleteAccount(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.paper.Summary(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	trades, err := s.paper.Transactions(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tr, err := s.paper.ExecuteTrade(r.Context(), mux.Vars(r)["id"], req.Symbol, ledger.TradeType(req.Type), req.Amount)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tr)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientFunds), errors.Is(err, ledger.ErrInsufficientHoldings):
		return http.StatusConflict
	case errors.Is(err, market.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, market.ErrPriceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		requestID, _ := r.Context().Value(requestIDKey).(string)
		s.log.Error().Err(err).Str("request_id", requestID).Str("path", r.URL.Path).Msg("internal error")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
