package market

import "time"

// Candle represents OHLC (Open, High, Low, Close) candlestick data
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Body is close minus open.
func (c Candle) Body() float64 { return c.Close - c.Open }

// Range is high minus low.
func (c Candle) Range() float64 { return c.High - c.Low }

// Valid reports whether the prices are positive and consistent.
func (c Candle) Valid() bool {
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return false
	}
	return c.High >= c.Low &&
		c.High >= c.Open && c.High >= c.Close &&
		c.Low <= c.Open && c.Low <= c.Close
}
