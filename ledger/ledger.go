// Package ledger owns the state transitions for holding assets against
// cash. It is the only code path that changes an account's balance or
// positions; the backtester and the paper-trading service both drive it.
package ledger

import (
	"fmt"
	"time"
)

// Position is the held amount of one symbol plus its weighted-average
// acquisition cost. amount == 0 implies avgCost == 0.
type Position struct {
	Symbol  string  `json:"symbol"`
	Amount  float64 `json:"amount"`
	AvgCost float64 `json:"avg_cost"`
}

// Account is the aggregate the ledger operates on. It exclusively owns
// its position map; Trades are append-only history. Callers that share
// an Account across goroutines must serialize access themselves (the
// paper service does this per account id).
type Account struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	CashBalance float64             `json:"cash_balance"`
	Positions   map[string]Position `json:"positions"`
	CreatedAt   time.Time           `json:"created_at"`

	nextTradeID int64
}

// NewAccount returns an account with the given starting cash. Trade IDs
// are monotonic per account, starting at 1.
func NewAccount(id, name string, cash float64) (*Account, error) {
	if name == "" {
		return nil, fmt.Errorf("account name required: %w", ErrInvalidArgument)
	}
	if cash <= 0 {
		return nil, fmt.Errorf("initial balance %v: %w", cash, ErrInvalidArgument)
	}
	return &Account{
		ID:          id,
		Name:        name,
		CashBalance: cash,
		Positions:   make(map[string]Position),
	}, nil
}

// Position returns the position for symbol, zero-valued when flat.
func (a *Account) Position(symbol string) Position {
	if p, ok := a.Positions[symbol]; ok {
		return p
	}
	return Position{Symbol: symbol}
}

// NextTradeID reports the id the next executed trade will carry.
func (a *Account) NextTradeID() int64 { return a.nextTradeID + 1 }

// RestoreTradeSeq resets the trade id counter, used when rehydrating an
// account from the store.
func (a *Account) RestoreTradeSeq(lastID int64) { a.nextTradeID = lastID }

// ExecuteBuy debits cash, folds the fill into the weighted-average cost
// basis, and returns the trade record. The account is untouched on error.
func ExecuteBuy(a *Account, symbol string, amount, price float64, at time.Time) (Trade, error) {
	if amount <= 0 || price <= 0 {
		return Trade{}, fmt.Errorf("buy %s amount=%v price=%v: %w", symbol, amount, price, ErrInvalidArgument)
	}
	cost := amount * price
	if cost > a.CashBalance {
		return Trade{}, fmt.Errorf("buy %s needs %.2f, cash %.2f: %w", symbol, cost, a.CashBalance, ErrInsufficientFunds)
	}

	pos := a.Position(symbol)
	totalAmount := pos.Amount + amount
	pos.AvgCost = (pos.Amount*pos.AvgCost + cost) / totalAmount
	pos.Amount = totalAmount

	a.CashBalance -= cost
	a.Positions[symbol] = pos
	a.nextTradeID++

	return Trade{
		ID:     a.nextTradeID,
		Type:   Buy,
		Symbol: symbol,
		Time:   at,
		Price:  price,
		Amount: amount,
		Value:  cost,
	}, nil
}

// ExecuteSell credits cash, realizes P&L against the average cost, and
// returns the trade record. Selling the full held amount drops the
// position entry and resets its cost basis. The account is untouched on
// error.
func ExecuteSell(a *Account, symbol string, amount, price float64, at time.Time) (Trade, error) {
	if amount <= 0 || price <= 0 {
		return Trade{}, fmt.Errorf("sell %s amount=%v price=%v: %w", symbol, amount, price, ErrInvalidArgument)
	}
	pos, ok := a.Positions[symbol]
	if !ok || pos.Amount < amount {
		return Trade{}, fmt.Errorf("sell %s amount=%v held=%v: %w", symbol, amount, pos.Amount, ErrInsufficientHoldings)
	}

	value := amount * price
	costBasis := amount * pos.AvgCost
	pl := value - costBasis
	plPct := pl / costBasis * 100

	pos.Amount -= amount
	if pos.Amount == 0 {
		delete(a.Positions, symbol)
	} else {
		a.Positions[symbol] = pos
	}

	a.CashBalance += value
	a.nextTradeID++

	return Trade{
		ID:                a.nextTradeID,
		Type:              Sell,
		Symbol:            symbol,
		Time:              at,
		Price:             price,
		Amount:            amount,
		Value:             value,
		ProfitLoss:        &pl,
		ProfitLossPercent: &plPct,
	}, nil
}
