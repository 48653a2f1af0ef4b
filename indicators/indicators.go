// Package indicators provides the technical indicators used as state
// features by the trading environment.
package indicators

import (
	"math"

	"github.com/rustyeddy/fxdqn/market"
)

// Indicator computes a single streaming value from candles.
// It is deterministic: the same candles always give the same value.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "ATR(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* candle and updates internal state.
	Update(c market.Candle)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current indicator value, 0 until Ready().
	Value() float64
}

// Series runs ind over candles and returns its value after each one,
// with NaN while it warms up. ind is reset first.
func Series(ind Indicator, candles []market.Candle) []float64 {
	ind.Reset()
	out := make([]float64, len(candles))
	for i, c := range candles {
		ind.Update(c)
		if ind.Ready() {
			out[i] = ind.Value()
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// Closes extracts the close of every candle.
func Closes(candles []market.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
