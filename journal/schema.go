// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	episode INTEGER NOT NULL,
	instrument TEXT NOT NULL,
	side TEXT NOT NULL,
	entry_price REAL NOT NULL,
	peak_price REAL NOT NULL,
	close_time DATETIME NOT NULL,
	reward_pips REAL NOT NULL,
	balance REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, close_time);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	trades INTEGER NOT NULL,
	balance REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_run ON equity(run_id, trades);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	mode TEXT NOT NULL,
	instrument TEXT NOT NULL,
	dataset TEXT NOT NULL,
	episodes INTEGER NOT NULL,
	steps INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	profit_pips REAL NOT NULL,
	loss_pips REAL NOT NULL,
	start_balance REAL NOT NULL,
	end_balance REAL NOT NULL,
	epsilon REAL NOT NULL,
	weights_path TEXT NOT NULL
);
`
