package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/quantlab/papertrader/ledger"
	"github.com/quantlab/papertrader/metrics"
)

// Memory is an in-process Store used by tests and throwaway runs. It
// keeps the same copy-on-read discipline as the SQLite store so
// callers never share aggregate state with it.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]*ledger.Account
	trades   map[string][]ledger.Trade
	equity   map[string][]metrics.EquityPoint
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]*ledger.Account),
		trades:   make(map[string][]ledger.Trade),
		equity:   make(map[string][]metrics.EquityPoint),
	}
}

func cloneAccount(a *ledger.Account) *ledger.Account {
	c := *a
	c.Positions = make(map[string]ledger.Position, len(a.Positions))
	for k, v := range a.Positions {
		c.Positions[k] = v
	}
	return &c
}

func (m *Memory) CreateAccount(ctx context.Context, a *ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.ID]; ok {
		return fmt.Errorf("account %q already exists", a.ID)
	}
	m.accounts[a.ID] = cloneAccount(a)
	return nil
}

func (m *Memory) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %q: %w", id, ErrAccountNotFound)
	}
	c := cloneAccount(a)
	if trades := m.trades[id]; len(trades) > 0 {
		c.RestoreTradeSeq(trades[len(trades)-1].ID)
	}
	return c, nil
}

func (m *Memory) ListAccounts(ctx context.Context) ([]*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ledger.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, cloneAccount(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) DeleteAccount(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return fmt.Errorf("account %q: %w", id, ErrAccountNotFound)
	}
	delete(m.accounts, id)
	delete(m.trades, id)
	delete(m.equity, id)
	return nil
}

func (m *Memory) ApplyTrade(ctx context.Context, a *ledger.Account, tr ledger.Trade, equity metrics.EquityPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.ID]; !ok {
		return fmt.Errorf("account %q: %w", a.ID, ErrAccountNotFound)
	}
	m.accounts[a.ID] = cloneAccount(a)
	m.trades[a.ID] = append(m.trades[a.ID], tr)
	m.equity[a.ID] = append(m.equity[a.ID], equity)
	return nil
}

func (m *Memory) ListTrades(ctx context.Context, accountID string, limit int) ([]ledger.Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.trades[accountID]
	out := make([]ledger.Trade, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *Memory) ListEquity(ctx context.Context, accountID string) ([]metrics.EquityPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]metrics.EquityPoint{}, m.equity[accountID]...), nil
}

func (m *Memory) Close() error { return nil }
