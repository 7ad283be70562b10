package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quantlab/papertrader/ledger"
	"github.com/quantlab/papertrader/metrics"
)

type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path and
// ensures the schema exists.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) CreateAccount(ctx context.Context, a *ledger.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, cash_balance, created_at)
		VALUES (?, ?, ?, ?)`,
		a.ID, a.Name, a.CashBalance, a.CreatedAt,
	)
	return err
}

func (s *SQLite) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	a := &ledger.Account{ID: id, Positions: make(map[string]ledger.Position)}

	row := s.db.QueryRowContext(ctx, `
		SELECT name, cash_balance, created_at FROM accounts WHERE id = ?`, id)
	if err := row.Scan(&a.Name, &a.CashBalance, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("account %q: %w", id, ErrAccountNotFound)
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, amount, avg_cost FROM positions WHERE account_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p ledger.Position
		if err := rows.Scan(&p.Symbol, &p.Amount, &p.AvgCost); err != nil {
			return nil, err
		}
		a.Positions[p.Symbol] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var lastTradeID sql.NullInt64
	row = s.db.QueryRowContext(ctx, `
		SELECT MAX(trade_id) FROM trades WHERE account_id = ?`, id)
	if err := row.Scan(&lastTradeID); err != nil {
		return nil, err
	}
	if lastTradeID.Valid {
		a.RestoreTradeSeq(lastTradeID.Int64)
	}

	return a, nil
}

func (s *SQLite) ListAccounts(ctx context.Context) ([]*ledger.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM accounts ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*ledger.Account, 0, len(ids))
	for _, id := range ids {
		a, err := s.GetAccount(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *SQLite) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("account %q: %w", id, ErrAccountNotFound)
	}
	return nil
}

func (s *SQLite) ApplyTrade(ctx context.Context, a *ledger.Account, tr ledger.Trade, equity metrics.EquityPoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE accounts SET cash_balance = ? WHERE id = ?`,
		a.CashBalance, a.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("account %q: %w", a.ID, ErrAccountNotFound)
	}

	if pos, ok := a.Positions[tr.Symbol]; ok {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO positions (account_id, symbol, amount, avg_cost)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (account_id, symbol)
			DO UPDATE SET amount = excluded.amount, avg_cost = excluded.avg_cost`,
			a.ID, pos.Symbol, pos.Amount, pos.AvgCost,
		)
	} else {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM positions WHERE account_id = ? AND symbol = ?`,
			a.ID, tr.Symbol,
		)
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trades
		(account_id, trade_id, type, symbol, time, price, amount, value, profit_loss, profit_loss_percent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, tr.ID, tr.Type, tr.Symbol, tr.Time, tr.Price, tr.Amount, tr.Value,
		tr.ProfitLoss, tr.ProfitLossPercent,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO equity (account_id, time, value) VALUES (?, ?, ?)`,
		a.ID, equity.Time, equity.Value,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLite) ListTrades(ctx context.Context, accountID string, limit int) ([]ledger.Trade, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT trade_id, type, symbol, time, price, amount, value, profit_loss, profit_loss_percent
		FROM trades
		WHERE account_id = ?
		ORDER BY trade_id DESC
		LIMIT ?`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Trade
	for rows.Next() {
		var tr ledger.Trade
		var pl, plPct sql.NullFloat64
		if err := rows.Scan(
			&tr.ID, &tr.Type, &tr.Symbol, &tr.Time,
			&tr.Price, &tr.Amount, &tr.Value, &pl, &plPct,
		); err != nil {
			return nil, err
		}
		if pl.Valid {
			tr.ProfitLoss = &pl.Float64
		}
		if plPct.Valid {
			tr.ProfitLossPercent = &plPct.Float64
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (s *SQLite) ListEquity(ctx context.Context, accountID string) ([]metrics.EquityPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT time, value FROM equity
		WHERE account_id = ?
		ORDER BY time ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []metrics.EquityPoint
	for rows.Next() {
		var p metrics.EquityPoint
		if err := rows.Scan(&p.Time, &p.Value); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
