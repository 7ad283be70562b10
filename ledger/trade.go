package ledger

import "time"

type TradeType string

const (
	Buy  TradeType = "buy"
	Sell TradeType = "sell"
)

// Trade is an immutable record of one executed order. ProfitLoss and
// ProfitLossPercent are set on sells only; nil on buys.
type Trade struct {
	ID                int64     `json:"trade_id"`
	Type              TradeType `json:"type"`
	Symbol            string    `json:"symbol"`
	Time              time.Time `json:"timestamp"`
	Price             float64   `json:"price"`
	Amount            float64   `json:"amount"`
	Value             float64   `json:"value"`
	ProfitLoss        *float64  `json:"profit_loss,omitempty"`
	ProfitLossPercent *float64  `json:"profit_loss_percent,omitempty"`
}
