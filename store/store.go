// Package store persists paper-trading accounts, their positions, and
// their trade history. Each account is an independent unit of
// consistency: ApplyTrade commits the balance change, the position
// change, and the trade record in one transaction or not at all.
package store

import (
	"context"
	"errors"

	"github.com/quantlab/papertrader/ledger"
	"github.com/quantlab/papertrader/metrics"
)

// ErrAccountNotFound is returned for unknown account ids.
var ErrAccountNotFound = errors.New("account not found")

type Store interface {
	CreateAccount(ctx context.Context, a *ledger.Account) error

	// GetAccount rehydrates the account aggregate: cash, positions,
	// and the trade id sequence.
	GetAccount(ctx context.Context, id string) (*ledger.Account, error)

	ListAccounts(ctx context.Context) ([]*ledger.Account, error)

	// DeleteAccount removes the account and all of its history.
	DeleteAccount(ctx context.Context, id string) error

	// ApplyTrade atomically records tr together with the account's
	// post-trade cash balance and positions, plus an equity snapshot.
	ApplyTrade(ctx context.Context, a *ledger.Account, tr ledger.Trade, equity metrics.EquityPoint) error

	// ListTrades returns up to limit trades, most recent first.
	ListTrades(ctx context.Context, accountID string, limit int) ([]ledger.Trade, error)

	// ListEquity returns the account's equity curve, oldest first.
	ListEquity(ctx context.Context, accountID string) ([]metrics.EquityPoint, error)

	Close() error
}
