// journal/journal.go
package journal

import (
	"time"
)

// TradeRecord is one closed trade in the agent's ledger.
type TradeRecord struct {
	TradeID    string
	RunID      string
	Episode    int
	Instrument string
	Side       string // "long" or "short"
	EntryPrice float64
	PeakPrice  float64 // adverse extreme on a stop, favourable extreme on a target
	CloseTime  time.Time
	RewardPips float64
	Balance    float64 // account balance after the close
	Reason     string  // "sl_hit" or "tp_hit"
}

// EquitySnapshot is the balance after a given number of closed trades.
type EquitySnapshot struct {
	RunID   string
	Time    time.Time
	Trades  int
	Balance float64
}

// RunRecord summarises one training or evaluation run.
type RunRecord struct {
	RunID        string
	Created      time.Time
	Mode         string // "train" or "eval"
	Instrument   string
	Dataset      string
	Episodes     int
	Steps        int
	Trades       int
	Wins         int
	Losses       int
	ProfitPips   float64
	LossPips     float64
	StartBalance float64
	EndBalance   float64
	Epsilon      float64
	WeightsPath  string
}

// WinRate is the fraction of closed trades that hit their target.
func (r RunRecord) WinRate() float64 {
	if r.Trades == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Trades)
}

// NetPips is accumulated profit minus accumulated loss.
func (r RunRecord) NetPips() float64 {
	return r.ProfitPips - r.LossPips
}

// Journal records closed trades, equity snapshots and run summaries.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	RecordRun(RunRecord) error
	Close() error
}

// Discard is a Journal that drops everything.
type Discard struct{}

func (Discard) RecordTrade(TradeRecord) error { return nil }
func (Discard) RecordEquity(EquitySnapshot) error { return nil }
func (Discard) RecordRun(RunRecord) error { return nil }
func (Discard) Close() error { return nil }

// Memory keeps every record in slices. Useful for tests and for callers
// that want the ledger after a run without touching disk.
type Memory struct {
	Trades []TradeRecord
	Equity []EquitySnapshot
	Runs   []RunRecord
	Closed bool
}

func (m *Memory) RecordTrade(t TradeRecord) error {
	m.Trades = append(m.Trades, t)
	return nil
}

func (m *Memory) RecordEquity(e EquitySnapshot) error {
	m.Equity = append(m.Equity, e)
	return nil
}

func (m *Memory) RecordRun(r RunRecord) error {
	m.Runs = append(m.Runs, r)
	return nil
}

func (m *Memory) Close() error {
	m.Closed = true
	return nil
}
