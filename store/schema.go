package store

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	cash_balance REAL NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
	account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	symbol TEXT NOT NULL,
	amount REAL NOT NULL,
	avg_cost REAL NOT NULL,
	PRIMARY KEY (account_id, symbol)
);

CREATE TABLE IF NOT EXISTS trades (
	account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	trade_id INTEGER NOT NULL,
	type TEXT NOT NULL,
	symbol TEXT NOT NULL,
	time DATETIME NOT NULL,
	price REAL NOT NULL,
	amount REAL NOT NULL,
	value REAL NOT NULL,
	profit_loss REAL,
	profit_loss_percent REAL,
	PRIMARY KEY (account_id, trade_id)
);

CREATE TABLE IF NOT EXISTS equity (
	account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	time DATETIME NOT NULL,
	value REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_account_time ON trades(account_id, time);
CREATE INDEX IF NOT EXISTS idx_equity_account_time ON equity(account_id, time);
`
