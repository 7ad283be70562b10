package paper

import (
	"context"
	"sort"

	"github.com/quantlab/papertrader/ledger"
)

// Holding is a position enriched with its current market value. All
// derived figures are recomputed from live quotes on every call and
// never persisted.
type Holding struct {
	Symbol            string  `json:"symbol"`
	Amount            float64 `json:"amount"`
	AvgCost           float64 `json:"avg_cost"`
	CurrentPrice      float64 `json:"current_price"`
	CurrentValue      float64 `json:"current_value"`
	ProfitLoss        float64 `json:"profit_loss"`
	ProfitLossPercent float64 `json:"profit_loss_percent"`
}

type Summary struct {
	Account                *ledger.Account `json:"account"`
	Holdings               []Holding       `json:"holdings"`
	TotalHoldingsValue     float64         `json:"total_holdings_value"`
	TotalValue             float64         `json:"total_value"`
	TotalProfitLoss        float64         `json:"total_profit_loss"`
	TotalProfitLossPercent float64         `json:"total_profit_loss_percent"`
}

// Summary is a pure read: it fetches current prices for every held
// symbol and recomputes the derived figures. It observes the account
// as of one store snapshot and never mutates anything.
func (s *Service) Summary(ctx context.Context, accountID string) (Summary, error) {
	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return Summary{}, err
	}

	out := Summary{Account: acct, Holdings: []Holding{}}

	var totalCost float64
	for _, pos := range sortedPositions(acct) {
		quote, err := s.prices.CurrentPrice(ctx, pos.Symbol)
		if err != nil {
			return Summary{}, err
		}

		value := pos.Amount * quote.Price
		cost := pos.Amount * pos.AvgCost

		h := Holding{
			Symbol:       pos.Symbol,
			Amount:       pos.Amount,
			AvgCost:      pos.AvgCost,
			CurrentPrice: quote.Price,
			CurrentValue: value,
			ProfitLoss:   value - cost,
		}
		if cost > 0 {
			h.ProfitLossPercent = h.ProfitLoss / cost * 100
		}

		out.Holdings = append(out.Holdings, h)
		out.TotalHoldingsValue += value
		totalCost += cost
	}

	out.TotalValue = acct.CashBalance + out.TotalHoldingsValue
	out.TotalProfitLoss = out.TotalHoldingsValue - totalCost
	if totalCost > 0 {
		out.TotalProfitLossPercent = out.TotalProfitLoss / totalCost * 100
	}

	return out, nil
}

func sortedPositions(a *ledger.Account) []ledger.Position {
	out := make([]ledger.Position, 0, len(a.Positions))
	for _, p := range a.Positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
