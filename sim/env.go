// Package sim is a candle-driven forex market for the DQN agent. Each
// episode is one trade: the agent enters long or short, the position runs
// until its stop or target is hit, and the reward is the result in pips.
package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/fxdqn/agent"
	"github.com/rustyeddy/fxdqn/market"
	"github.com/rustyeddy/fxdqn/risk"
)

// Actions of the environment.
const (
	ActionLong  agent.Action = 0
	ActionShort agent.Action = 1
	ActionHold  agent.Action = 2
)

// Close reasons.
const (
	ReasonStopLoss   = string(agent.InfoStopLoss)
	ReasonTakeProfit = string(agent.InfoTakeProfit)
)

// Env implements agent.Environment over a fixed candle series.
type Env struct {
	cfg     Config
	meta    market.InstrumentMeta
	candles []market.Candle
	feat    features

	cursor  int // index of the last closed candle
	balance decimal.Decimal
	trade   *Trade // open trade, or the last closed one
	history []Trade
	log     zerolog.Logger
}

var _ agent.Environment = (*Env)(nil)
var _ agent.TradeDescriber = (*Env)(nil)

// New builds an environment. The cursor starts at the first candle for
// which every state feature is defined.
func New(cfg Config, candles []market.Candle) (*Env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid environment config: %w", err)
	}
	meta, err := market.Lookup(cfg.Instrument)
	if err != nil {
		return nil, err
	}
	feat, err := buildFeatures(cfg, candles)
	if err != nil {
		return nil, err
	}
	if feat.first >= len(candles)-1 {
		return nil, fmt.Errorf("need more than %d candles, got %d", feat.first+1, len(candles))
	}

	return &Env{
		cfg:     cfg,
		meta:    meta,
		candles: candles,
		feat:    feat,
		cursor:  feat.first,
		balance: decimal.NewFromFloat(cfg.Balance),
		log:     zerolog.Nop(),
	}, nil
}

// SetLogger sets the logger used for risk-sized entries.
func (e *Env) SetLogger(l zerolog.Logger) {
	e.log = l.With().Str("component", "sim").Logger()
}

// Reset starts the next episode at the current candle.
func (e *Env) Reset() ([]float64, error) {
	if e.cursor+1 >= len(e.candles) {
		return nil, agent.ErrDataExhausted
	}
	if e.OpenPositionExists() {
		return nil, errors.New("reset with an open position")
	}
	return e.state(e.cursor), nil
}

// Step applies a when flat, or advances the open trade and ignores a.
func (e *Env) Step(a agent.Action) (agent.StepResult, error) {
	if e.cursor+1 >= len(e.candles) {
		return agent.StepResult{}, agent.ErrDataExhausted
	}

	if e.OpenPositionExists() {
		return e.advance(), nil
	}

	switch a {
	case ActionHold:
		e.cursor++
		return agent.StepResult{State: e.state(e.cursor), Done: true}, nil
	case ActionLong:
		e.open(Long)
	case ActionShort:
		e.open(Short)
	default:
		return agent.StepResult{}, fmt.Errorf("invalid action %d without an open position", a)
	}

	res := e.advance()
	for e.cfg.ResolveOnEntry && !res.Done && e.cursor+1 < len(e.candles) {
		res = e.advance()
	}
	return res, nil
}

func (e *Env) open(side Side) {
	c := e.candles[e.cursor]
	entry := c.Close + float64(side)*e.meta.PipsToPrice(e.cfg.SpreadPips)
	e.trade = newTrade(
		e.cfg.Instrument, side, e.units(entry), entry,
		e.meta.PipsToPrice(e.cfg.StopPips),
		e.meta.PipsToPrice(e.cfg.TakeProfitPips),
		c.Time,
	)
}

// units is the configured lot size, or the risk-based size when
// RiskPercent is set. A risk-sized trade is never smaller than one unit.
func (e *Env) units(entry float64) float64 {
	if e.cfg.RiskPercent <= 0 {
		return e.cfg.Units()
	}
	// the currency pair was checked by Config.Validate
	pipValue, _ := market.PipValue(e.cfg.Instrument, e.cfg.AccountCurrency, 1, entry)
	r := risk.Size(risk.Inputs{
		Balance:  e.Balance(),
		Percent:  e.cfg.RiskPercent,
		StopPips: e.cfg.StopPips,
		PipValue: pipValue,
	})
	units := max(r.Units, 1)

	e.log.Debug().
		Float64("units", units).
		Float64("risk_amount", r.RiskAmount).
		Float64("planned_risk", risk.PlannedRisk(units, e.cfg.StopPips, pipValue)).
		Float64("reward_risk", risk.RewardRisk(e.cfg.StopPips, e.cfg.TakeProfitPips)).
		Msg("risk-sized entry")
	return units
}

// advance consumes one candle and checks the open trade against it.
func (e *Env) advance() agent.StepResult {
	e.cursor++
	c := e.candles[e.cursor]

	exit, reason, hit := checkExit(e.trade, c)
	if !hit {
		return agent.StepResult{State: e.state(e.cursor)}
	}
	e.close(exit, reason, c.Time)
	return agent.StepResult{
		State:  e.state(e.cursor),
		Reward: e.trade.Pips,
		Done:   true,
		Info:   agent.Info(reason),
	}
}

func (e *Env) close(exit float64, reason string, at time.Time) {
	t := e.trade
	// the currency pair was checked by Config.Validate
	rate, _ := market.QuoteToAccountRate(t.Instrument, e.cfg.AccountCurrency, exit)

	t.ClosePrice = exit
	t.CloseTime = at
	t.Pips = pipsBetween(t.Side, t.EntryPrice, exit, e.meta.PipSize())
	t.RealizedPL = decimal.NewFromFloat(UnrealizedPL(*t, exit, rate)).Round(2).InexactFloat64()
	t.Reason = reason
	t.Open = false

	e.balance = e.balance.Add(decimal.NewFromFloat(t.RealizedPL))
	e.history = append(e.history, *t)
}

func (e *Env) ActionSpace() []agent.Action {
	return []agent.Action{ActionLong, ActionShort, ActionHold}
}

func (e *Env) StateDim() int { return e.cfg.Window + fixedFeatures }

func (e *Env) OpenPositionExists() bool { return e.trade != nil && e.trade.Open }

// Balance is the account balance after every closed trade.
func (e *Env) Balance() float64 { return e.balance.InexactFloat64() }

// Equity is the balance plus the open trade's result at the current close.
func (e *Env) Equity() float64 {
	if !e.OpenPositionExists() {
		return e.Balance()
	}
	price := e.candles[e.cursor].Close
	rate, err := market.QuoteToAccountRate(e.cfg.Instrument, e.cfg.AccountCurrency, price)
	if err != nil {
		return e.Balance()
	}
	return e.balance.Add(decimal.NewFromFloat(UnrealizedPL(*e.trade, price, rate))).InexactFloat64()
}

// EntryPrice, TradeHighest and TradeLowest describe the open trade or, once
// it has closed, the last one.
func (e *Env) EntryPrice() float64 {
	if e.trade == nil {
		return 0
	}
	return e.trade.EntryPrice
}

func (e *Env) TradeHighest() float64 {
	if e.trade == nil {
		return 0
	}
	return e.trade.Highest
}

func (e *Env) TradeLowest() float64 {
	if e.trade == nil {
		return 0
	}
	return e.trade.Lowest
}

// CurrentTime is the open time of the last consumed candle.
func (e *Env) CurrentTime() time.Time { return e.candles[e.cursor].Time }

func (e *Env) Instrument() string { return e.cfg.Instrument }

// Side of the open or last trade.
func (e *Env) Side() Side {
	if e.trade == nil {
		return Long
	}
	return e.trade.Side
}

func (e *Env) Short() bool { return e.Side() == Short }

// Trades returns every closed trade in order.
func (e *Env) Trades() []Trade {
	return append([]Trade(nil), e.history...)
}

// Remaining is the number of candles not yet consumed.
func (e *Env) Remaining() int { return len(e.candles) - 1 - e.cursor }
