package journal

import (
	"database/sql"
	"errors"
	"fmt"
)

const tradeColumns = `trade_id, run_id, episode, instrument, side, entry_price, peak_price, close_time, reward_pips, balance, reason`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(s rowScanner) (TradeRecord, error) {
	var rec TradeRecord
	err := s.Scan(
		&rec.TradeID,
		&rec.RunID,
		&rec.Episode,
		&rec.Instrument,
		&rec.Side,
		&rec.EntryPrice,
		&rec.PeakPrice,
		&rec.CloseTime,
		&rec.RewardPips,
		&rec.Balance,
		&rec.Reason,
	)
	return rec, err
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)
	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTrades returns the trades of a run in closing order. An empty runID
// lists every trade in the journal.
func (j *SQLite) ListTrades(runID string) ([]TradeRecord, error) {
	q := `SELECT ` + tradeColumns + ` FROM trades`
	var args []any
	if runID != "" {
		q += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	q += ` ORDER BY close_time ASC, trade_id ASC`

	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquity returns the balance curve of a run ordered by trade count.
func (j *SQLite) ListEquity(runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT run_id, time, trades, balance
		FROM equity
		WHERE run_id = ?
		ORDER BY trades ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.RunID, &e.Time, &e.Trades, &e.Balance); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRuns returns every recorded run, newest first.
func (j *SQLite) ListRuns() ([]RunRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, created, mode, instrument, dataset, episodes, steps, trades, wins, losses,
		       profit_pips, loss_pips, start_balance, end_balance, epsilon, weights_path
		FROM runs
		ORDER BY created DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(
			&r.RunID, &r.Created, &r.Mode, &r.Instrument, &r.Dataset,
			&r.Episodes, &r.Steps, &r.Trades, &r.Wins, &r.Losses,
			&r.ProfitPips, &r.LossPips, &r.StartBalance, &r.EndBalance,
			&r.Epsilon, &r.WeightsPath,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TradeStats aggregates the ledger of one run.
type TradeStats struct {
	Trades     int
	Wins       int
	Losses     int
	ProfitPips float64
	LossPips   float64
}

// Stats computes win/loss counts and pip totals for a run.
func (j *SQLite) Stats(runID string) (TradeStats, error) {
	var s TradeStats
	row := j.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN reason = 'tp_hit' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN reason = 'sl_hit' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN reward_pips > 0 THEN reward_pips ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN reward_pips < 0 THEN -reward_pips ELSE 0 END), 0)
		FROM trades
		WHERE run_id = ?`, runID)
	if err := row.Scan(&s.Trades, &s.Wins, &s.Losses, &s.ProfitPips, &s.LossPips); err != nil {
		return TradeStats{}, err
	}
	return s, nil
}
