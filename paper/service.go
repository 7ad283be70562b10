// Package paper drives the ledger from discrete, manually issued
// buy/sell commands against live quotes, with durable state. Mutations
// serialize per account id; accounts never share anything, so trades
// on different accounts proceed independently.
package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantlab/papertrader/ledger"
	"github.com/quantlab/papertrader/market"
	"github.com/quantlab/papertrader/metrics"
	"github.com/quantlab/papertrader/pkg/id"
	"github.com/quantlab/papertrader/store"
)

type Service struct {
	store  store.Store
	prices market.PriceSource
	log    zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(st store.Store, prices market.PriceSource, log zerolog.Logger) *Service {
	return &Service{
		store:  st,
		prices: prices,
		log:    log,
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// lock acquires the per-account mutex, creating it on first use.
// Returns the unlock func.
func (s *Service) lock(accountID string) func() {
	s.mu.Lock()
	l, ok := s.locks[accountID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[accountID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// CreateAccount opens a new account with the given starting cash.
func (s *Service) CreateAccount(ctx context.Context, name string, balance float64) (*ledger.Account, error) {
	a, err := ledger.NewAccount(id.New(), name, balance)
	if err != nil {
		return nil, err
	}
	a.CreatedAt = s.now().UTC()

	if err := s.store.CreateAccount(ctx, a); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.log.Info().Str("account", a.ID).Str("name", name).Float64("balance", balance).Msg("account created")
	return a, nil
}

func (s *Service) GetAccount(ctx context.Context, accountID string) (*ledger.Account, error) {
	return s.store.GetAccount(ctx, accountID)
}

func (s *Service) ListAccounts(ctx context.Context) ([]*ledger.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *Service) DeleteAccount(ctx context.Context, accountID string) error {
	unlock := s.lock(accountID)
	defer unlock()

	if err := s.store.DeleteAccount(ctx, accountID); err != nil {
		return err
	}
	s.log.Info().Str("account", accountID).Msg("account deleted")
	return nil
}

// ExecuteTrade resolves the current quote for symbol and applies one
// buy or sell to the account. At most one mutating call per account is
// in flight at a time; the store commit is all-or-nothing, so a failed
// trade leaves no trace.
func (s *Service) ExecuteTrade(ctx context.Context, accountID, symbol string, typ ledger.TradeType, amount float64) (ledger.Trade, error) {
	if amount <= 0 {
		return ledger.Trade{}, fmt.Errorf("trade amount %v: %w", amount, ledger.ErrInvalidArgument)
	}
	if typ != ledger.Buy && typ != ledger.Sell {
		return ledger.Trade{}, fmt.Errorf("trade type %q: %w", typ, ledger.ErrInvalidArgument)
	}

	unlock := s.lock(accountID)
	defer unlock()

	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return ledger.Trade{}, err
	}

	quote, err := s.prices.CurrentPrice(ctx, symbol)
	if err != nil {
		return ledger.Trade{}, err
	}

	at := quote.Time
	if at.IsZero() {
		at = s.now().UTC()
	}

	var tr ledger.Trade
	if typ == ledger.Buy {
		tr, err = ledger.ExecuteBuy(acct, symbol, amount, quote.Price, at)
	} else {
		tr, err = ledger.ExecuteSell(acct, symbol, amount, quote.Price, at)
	}
	if err != nil {
		return ledger.Trade{}, err
	}

	snapshot := metrics.EquityPoint{Time: at, Value: s.equityValue(ctx, acct, symbol, quote.Price)}
	if err := s.store.ApplyTrade(ctx, acct, tr, snapshot); err != nil {
		return ledger.Trade{}, fmt.Errorf("commit trade: %w", err)
	}

	s.log.Info().
		Str("account", accountID).
		Str("symbol", symbol).
		Str("type", string(typ)).
		Float64("amount", amount).
		Float64("price", quote.Price).
		Int64("trade_id", tr.ID).
		Msg("trade executed")

	return tr, nil
}

// equityValue marks the account to market for the per-trade equity
// snapshot. The traded symbol uses the execution price; other holdings
// use the latest quote when one exists and fall back to their cost
// basis when the feed has none.
func (s *Service) equityValue(ctx context.Context, a *ledger.Account, tradedSymbol string, tradedPrice float64) float64 {
	total := a.CashBalance
	for sym, pos := range a.Positions {
		switch {
		case sym == tradedSymbol:
			total += pos.Amount * tradedPrice
		default:
			if q, err := s.prices.CurrentPrice(ctx, sym); err == nil {
				total += pos.Amount * q.Price
			} else {
				total += pos.Amount * pos.AvgCost
			}
		}
	}
	return total
}

// Transactions returns the account's most recent trades, newest first.
func (s *Service) Transactions(ctx context.Context, accountID string, limit int) ([]ledger.Trade, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.ListTrades(ctx, accountID, limit)
}

// Equity returns the account's persisted equity curve, oldest first.
func (s *Service) Equity(ctx context.Context, accountID string) ([]metrics.EquityPoint, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.ListEquity(ctx, accountID)
}
