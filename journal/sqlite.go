package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, episode, instrument, side, entry_price, peak_price, close_time, reward_pips, balance, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.Episode, t.Instrument, t.Side, t.EntryPrice,
		t.PeakPrice, t.CloseTime, t.RewardPips, t.Balance, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, time, trades, balance)
		VALUES (?, ?, ?, ?)`,
		e.RunID, e.Time, e.Trades, e.Balance,
	)
	return err
}

// RecordRun inserts or replaces the summary of a run.
func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO runs
		(run_id, created, mode, instrument, dataset, episodes, steps, trades, wins, losses,
		 profit_pips, loss_pips, start_balance, end_balance, epsilon, weights_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Mode, r.Instrument, r.Dataset, r.Episodes, r.Steps,
		r.Trades, r.Wins, r.Losses, r.ProfitPips, r.LossPips, r.StartBalance,
		r.EndBalance, r.Epsilon, r.WeightsPath,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
