package sim

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/fxdqn/market"
)

// UnitsPerLot is the size of one standard lot.
const UnitsPerLot = 100_000

// Config describes the simulated account and the trade rules.
type Config struct {
	Instrument      string
	AccountCurrency string
	Balance         float64
	Lot             float64 // position size in standard lots

	// RiskPercent, when positive, sizes each trade so that its stop
	// loses this share of the current balance. Lot is then ignored.
	RiskPercent float64

	StopPips       float64
	TakeProfitPips float64
	SpreadPips     float64

	Window    int // close-to-close deltas in the state
	FastEMA   int
	SlowEMA   int
	ATRPeriod int
	RSIPeriod int

	// ResolveOnEntry consumes candles inside the entering step until the
	// trade closes, so every entry is a one-step episode.
	ResolveOnEntry bool
}

// DefaultConfig is a half-lot EUR_USD account of 10,000 USD.
func DefaultConfig() Config {
	return Config{
		Instrument:      "EUR_USD",
		AccountCurrency: "USD",
		Balance:         10000,
		Lot:             0.5,
		StopPips:        20,
		TakeProfitPips:  30,
		SpreadPips:      1,
		Window:          10,
		FastEMA:         12,
		SlowEMA:         26,
		ATRPeriod:       14,
		RSIPeriod:       14,
	}
}

// Validate checks the environment settings.
func (c Config) Validate() error {
	if _, err := market.Lookup(c.Instrument); err != nil {
		return err
	}
	if c.AccountCurrency == "" {
		return errors.New("account_currency is required")
	}
	if _, err := market.QuoteToAccountRate(c.Instrument, c.AccountCurrency, 1); err != nil {
		return err
	}
	if c.Balance <= 0 {
		return errors.New("balance must be positive")
	}
	if c.Lot <= 0 {
		return errors.New("lot must be positive")
	}
	if c.RiskPercent < 0 || c.RiskPercent >= 1 {
		return errors.New("risk_percent must be between 0 and 1")
	}
	if c.StopPips <= 0 || c.TakeProfitPips <= 0 {
		return errors.New("stop_pips and take_profit_pips must be positive")
	}
	if c.SpreadPips < 0 {
		return errors.New("spread_pips must not be negative")
	}
	if c.Window <= 0 {
		return errors.New("window must be positive")
	}
	if c.FastEMA <= 0 || c.SlowEMA <= c.FastEMA {
		return fmt.Errorf("ema periods must satisfy 0 < fast (%d) < slow (%d)", c.FastEMA, c.SlowEMA)
	}
	if c.ATRPeriod <= 0 {
		return errors.New("atr_period must be positive")
	}
	if c.RSIPeriod < 2 {
		return errors.New("rsi_period must be at least 2")
	}
	return nil
}

// Units is the trade size in base currency units.
func (c Config) Units() float64 {
	return c.Lot * UnitsPerLot
}
