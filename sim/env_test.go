package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxdqn/agent"
	"github.com/rustyeddy/fxdqn/journal"
	"github.com/rustyeddy/fxdqn/market"
	"github.com/rustyeddy/fxdqn/nn"
)

var monday = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Window = 3
	cfg.FastEMA = 2
	cfg.SlowEMA = 3
	cfg.ATRPeriod = 2
	cfg.RSIPeriod = 2
	return cfg
}

// series returns four flat warm-up candles at 1.1000 followed by bars,
// given as high/low pairs closing at 1.1000.
func series(bars ...[2]float64) []market.Candle {
	var out []market.Candle
	for i := 0; i < 4; i++ {
		out = append(out, market.Candle{
			Time: monday.Add(time.Duration(i) * time.Hour),
			Open: 1.1000, High: 1.1002, Low: 1.0998, Close: 1.1000,
		})
	}
	for i, b := range bars {
		out = append(out, market.Candle{
			Time: monday.Add(time.Duration(4+i) * time.Hour),
			Open: 1.1000, High: b[0], Low: b[1], Close: 1.1000,
		})
	}
	return out
}

func newTestEnv(t *testing.T, cfg Config, candles []market.Candle) *Env {
	t.Helper()
	env, err := New(cfg, candles)
	require.NoError(t, err)
	return env
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown instrument", func(c *Config) { c.Instrument = "EUR_CHF" }},
		{"cross account", func(c *Config) { c.AccountCurrency = "GBP" }},
		{"no balance", func(c *Config) { c.Balance = 0 }},
		{"no lot", func(c *Config) { c.Lot = 0 }},
		{"risk percent", func(c *Config) { c.RiskPercent = 1.5 }},
		{"no stop", func(c *Config) { c.StopPips = 0 }},
		{"negative spread", func(c *Config) { c.SpreadPips = -1 }},
		{"no window", func(c *Config) { c.Window = 0 }},
		{"ema order", func(c *Config) { c.FastEMA = 30 }},
		{"rsi period", func(c *Config) { c.RSIPeriod = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestNewNeedsEnoughCandles(t *testing.T) {
	_, err := New(testConfig(), series())
	assert.Error(t, err)

	_, err = New(testConfig(), series([2]float64{1.1002, 1.0998}))
	assert.NoError(t, err)
}

func TestStateLayout(t *testing.T) {
	env := newTestEnv(t, testConfig(), series([2]float64{1.1002, 1.0998}))
	assert.Equal(t, 10, env.StateDim())
	assert.Equal(t, []agent.Action{ActionLong, ActionShort, ActionHold}, env.ActionSpace())

	s, err := env.Reset()
	require.NoError(t, err)
	require.Len(t, s, env.StateDim())

	assert.Equal(t, []float64{0, 0, 0}, s[:3])
	assert.InDelta(t, 4.0, s[4], 1e-9) // range in pips
	assert.Equal(t, 0.1, s[8])         // Monday
	assert.Equal(t, 3.0/24, s[9])
	assert.Equal(t, monday.Add(3*time.Hour), env.CurrentTime())
}

func TestLongTakeProfit(t *testing.T) {
	env := newTestEnv(t, testConfig(), series([2]float64{1.1040, 1.0995}))
	_, err := env.Reset()
	require.NoError(t, err)

	res, err := env.Step(ActionLong)
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, agent.InfoTakeProfit, res.Info)
	assert.Equal(t, 30.0, res.Reward)
	assert.False(t, env.OpenPositionExists())

	assert.InDelta(t, 1.1001, env.EntryPrice(), 1e-12)
	assert.Equal(t, 1.1040, env.TradeHighest())
	assert.Equal(t, 1.0995, env.TradeLowest())
	assert.False(t, env.Short())
	assert.InDelta(t, 10150, env.Balance(), 1e-9)

	trades := env.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, ReasonTakeProfit, trades[0].Reason)
	assert.InDelta(t, 150, trades[0].RealizedPL, 1e-9)
}

func TestRiskSizedStopLoss(t *testing.T) {
	cfg := testConfig()
	cfg.RiskPercent = 0.01
	env := newTestEnv(t, cfg, series([2]float64{1.1005, 1.0975}))
	var buf bytes.Buffer
	env.SetLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	_, err := env.Reset()
	require.NoError(t, err)

	res, err := env.Step(ActionLong)
	require.NoError(t, err)
	assert.Equal(t, agent.InfoStopLoss, res.Info)
	assert.Equal(t, -20.0, res.Reward)

	trades := env.Trades()
	require.Len(t, trades, 1)
	assert.InDelta(t, 50000, trades[0].Units, 1)
	assert.InDelta(t, -100, trades[0].RealizedPL, 0.5)
	assert.InDelta(t, 9900, env.Balance(), 0.5)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "risk-sized entry", entry["message"])
	assert.InDelta(t, 100, entry["risk_amount"], 1e-9)
	assert.InDelta(t, 100, entry["planned_risk"], 0.01)
	assert.InDelta(t, 1.5, entry["reward_risk"], 1e-9)
}

func TestFixedUnitsDoNotLogRisk(t *testing.T) {
	env := newTestEnv(t, testConfig(), series([2]float64{1.1005, 1.0975}))
	var buf bytes.Buffer
	env.SetLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	_, err := env.Reset()
	require.NoError(t, err)

	_, err = env.Step(ActionLong)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestStopWinsInsideOneCandle(t *testing.T) {
	env := newTestEnv(t, testConfig(), series([2]float64{1.1040, 1.0970}))
	_, err := env.Reset()
	require.NoError(t, err)

	res, err := env.Step(ActionLong)
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, agent.InfoStopLoss, res.Info)
	assert.Equal(t, -20.0, res.Reward)
	assert.InDelta(t, 9900, env.Balance(), 1e-9)
}

func TestShortTakeProfit(t *testing.T) {
	env := newTestEnv(t, testConfig(), series([2]float64{1.1005, 1.0960}))
	_, err := env.Reset()
	require.NoError(t, err)

	res, err := env.Step(ActionShort)
	require.NoError(t, err)
	assert.Equal(t, agent.InfoTakeProfit, res.Info)
	assert.Equal(t, 30.0, res.Reward)
	assert.True(t, env.Short())
	assert.Equal(t, Short, env.Side())
	assert.InDelta(t, 1.0999, env.EntryPrice(), 1e-12)
	assert.Equal(t, 1.0960, env.TradeLowest())
	assert.InDelta(t, 10150, env.Balance(), 1e-9)
}

func TestOpenTradeRunsAcrossSteps(t *testing.T) {
	candles := series(
		[2]float64{1.1012, 1.0995},
		[2]float64{1.1010, 1.0990},
		[2]float64{1.1005, 1.0975},
	)
	candles[4].Close = 1.1011
	env := newTestEnv(t, testConfig(), candles)
	_, err := env.Reset()
	require.NoError(t, err)

	res, err := env.Step(ActionLong)
	require.NoError(t, err)
	assert.False(t, res.Done)
	assert.True(t, env.OpenPositionExists())
	assert.InDelta(t, 10050, env.Equity(), 1e-6)

	res, err = env.Step(agent.NoAction)
	require.NoError(t, err)
	assert.False(t, res.Done)

	// the action is ignored while a trade is open
	res, err = env.Step(ActionShort)
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, agent.InfoStopLoss, res.Info)
	assert.Equal(t, 1.1012, env.TradeHighest())
	assert.Equal(t, 1.0975, env.TradeLowest())
	assert.False(t, env.Short())
	assert.Equal(t, env.Balance(), env.Equity())
}

func TestResolveOnEntry(t *testing.T) {
	cfg := testConfig()
	cfg.ResolveOnEntry = true
	env := newTestEnv(t, cfg, series(
		[2]float64{1.1012, 1.0995},
		[2]float64{1.1035, 1.0990},
		[2]float64{1.1002, 1.0998},
	))
	_, err := env.Reset()
	require.NoError(t, err)

	res, err := env.Step(ActionLong)
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, agent.InfoTakeProfit, res.Info)
	assert.Equal(t, monday.Add(5*time.Hour), env.CurrentTime())
	assert.Equal(t, 1, env.Remaining())
}

func TestHoldEndsEpisodeAndDataRunsOut(t *testing.T) {
	env := newTestEnv(t, testConfig(), series(
		[2]float64{1.1002, 1.0998},
		[2]float64{1.1002, 1.0998},
	))

	for i := 0; i < 2; i++ {
		_, err := env.Reset()
		require.NoError(t, err)
		res, err := env.Step(ActionHold)
		require.NoError(t, err)
		assert.True(t, res.Done)
		assert.Equal(t, agent.InfoNone, res.Info)
		assert.Zero(t, res.Reward)
	}

	_, err := env.Reset()
	assert.ErrorIs(t, err, agent.ErrDataExhausted)
	_, err = env.Step(ActionHold)
	assert.ErrorIs(t, err, agent.ErrDataExhausted)
	assert.Equal(t, 10000.0, env.Balance())
}

func TestStepPastLastCandleWithOpenTrade(t *testing.T) {
	env := newTestEnv(t, testConfig(), series([2]float64{1.1010, 1.0995}))
	_, err := env.Reset()
	require.NoError(t, err)

	res, err := env.Step(ActionLong)
	require.NoError(t, err)
	assert.False(t, res.Done)

	_, err = env.Step(agent.NoAction)
	assert.ErrorIs(t, err, agent.ErrDataExhausted)
}

func TestInvalidActionWhenFlat(t *testing.T) {
	env := newTestEnv(t, testConfig(), series([2]float64{1.1002, 1.0998}))
	_, err := env.Reset()
	require.NoError(t, err)

	_, err = env.Step(agent.NoAction)
	assert.Error(t, err)
	_, err = env.Step(7)
	assert.Error(t, err)
}

func TestAgentTrainsOnSyntheticMarket(t *testing.T) {
	candles := market.SyntheticCandles(400, 5, monday, time.Hour)
	env, err := New(DefaultConfig(), candles)
	require.NoError(t, err)

	netCfg := nn.Config{
		Inputs:       env.StateDim(),
		Hidden:       []int{16},
		Outputs:      len(env.ActionSpace()),
		LearningRate: 0.001,
		Seed:         1,
	}
	online, err := nn.New(netCfg)
	require.NoError(t, err)
	target, err := nn.New(netCfg)
	require.NoError(t, err)

	cfg := agent.DefaultConfig()
	cfg.BatchSize = 16
	cfg.MinReplaySize = 16
	cfg.CheckpointEvery = 5
	cfg.WeightsPath = filepath.Join(t.TempDir(), "eur_usd_dqn.msgpack")

	a, err := agent.New(cfg, env, online, target)
	require.NoError(t, err)
	mem := &journal.Memory{}
	a.SetJournal(mem)

	sum, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, env.Remaining())
	assert.Equal(t, len(env.Trades()), sum.Trades)
	assert.Len(t, mem.Trades, sum.Trades)
	assert.InDelta(t, env.Balance(), sum.Balance, 1e-9)
	require.Len(t, mem.Runs, 1)
	assert.Equal(t, "EUR_USD", mem.Runs[0].Instrument)

	// the final checkpoint leaves a loadable weights file
	restored, err := nn.New(netCfg)
	require.NoError(t, err)
	require.NoError(t, restored.Load(cfg.WeightsPath))
	assert.Equal(t, online.Weights(), restored.Weights())
}
