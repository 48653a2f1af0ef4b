package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func sampleTrade(id, run string, episode int, pips float64, closeT time.Time) TradeRecord {
	reason := "tp_hit"
	if pips < 0 {
		reason = "sl_hit"
	}
	return TradeRecord{
		TradeID:    id,
		RunID:      run,
		Episode:    episode,
		Instrument: "EUR_USD",
		Side:       "short",
		EntryPrice: 1.1,
		PeakPrice:  1.09,
		CloseTime:  closeT,
		RewardPips: pips,
		Balance:    10000 + pips,
		Reason:     reason,
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','equity','runs')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
	assert.True(t, found["runs"])
}

func TestSQLiteTradeRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	closeT := time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC)
	rec := sampleTrade("T1", "R1", 3, 50, closeT)
	require.NoError(t, j.RecordTrade(rec))

	got, err := j.GetTrade("T1")
	require.NoError(t, err)
	assert.Equal(t, rec.TradeID, got.TradeID)
	assert.Equal(t, rec.RunID, got.RunID)
	assert.Equal(t, rec.Episode, got.Episode)
	assert.Equal(t, rec.Side, got.Side)
	assert.InDelta(t, rec.EntryPrice, got.EntryPrice, 1e-9)
	assert.InDelta(t, rec.PeakPrice, got.PeakPrice, 1e-9)
	assert.True(t, got.CloseTime.Equal(rec.CloseTime))
	assert.InDelta(t, rec.RewardPips, got.RewardPips, 1e-9)
	assert.InDelta(t, rec.Balance, got.Balance, 1e-9)
	assert.Equal(t, "tp_hit", got.Reason)

	_, err = j.GetTrade("missing")
	assert.ErrorContains(t, err, "not found")
}

func TestSQLiteListTradesAndStats(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("B", "R1", 2, -100, t0.Add(2*time.Hour))))
	require.NoError(t, j.RecordTrade(sampleTrade("A", "R1", 1, 200, t0.Add(time.Hour))))
	require.NoError(t, j.RecordTrade(sampleTrade("C", "R2", 1, 200, t0)))

	trades, err := j.ListTrades("R1")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "A", trades[0].TradeID)
	assert.Equal(t, "B", trades[1].TradeID)

	all, err := j.ListTrades("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	stats, err := j.Stats("R1")
	require.NoError(t, err)
	assert.Equal(t, TradeStats{Trades: 2, Wins: 1, Losses: 1, ProfitPips: 200, LossPips: 100}, stats)

	empty, err := j.Stats("nope")
	require.NoError(t, err)
	assert.Equal(t, TradeStats{}, empty)
}

func TestSQLiteEquityAndRuns(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	require.NoError(t, j.RecordEquity(EquitySnapshot{RunID: "R1", Time: ts.Add(time.Hour), Trades: 2, Balance: 1010}))
	require.NoError(t, j.RecordEquity(EquitySnapshot{RunID: "R1", Time: ts, Trades: 1, Balance: 1000}))

	eq, err := j.ListEquity("R1")
	require.NoError(t, err)
	require.Len(t, eq, 2)
	assert.Equal(t, 1, eq[0].Trades)
	assert.Equal(t, 1010.0, eq[1].Balance)

	run := RunRecord{RunID: "R1", Created: ts, Mode: "train", Instrument: "EUR_USD", Trades: 2, Wins: 1, Losses: 1, EndBalance: 1010}
	require.NoError(t, j.RecordRun(run))
	run.Episodes = 9
	require.NoError(t, j.RecordRun(run)) // replaces

	runs, err := j.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 9, runs[0].Episodes)
	assert.Equal(t, "train", runs[0].Mode)
	assert.InDelta(t, 0.5, runs[0].WinRate(), 1e-9)
}
