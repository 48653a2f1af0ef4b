package sim

import "time"

// Side is +1 for long and -1 for short.
type Side int

const (
	Long  Side = 1
	Short Side = -1
)

func (s Side) String() string {
	if s == Short {
		return "short"
	}
	return "long"
}

// Trade is one simulated position with a fixed stop and target.
type Trade struct {
	Instrument string
	Side       Side
	Units      float64 // signed: positive long, negative short
	EntryPrice float64
	OpenTime   time.Time

	StopLoss   float64
	TakeProfit float64

	// extremes reached while open, entry candle excluded
	Highest float64
	Lowest  float64

	// Realized
	ClosePrice float64
	CloseTime  time.Time
	RealizedPL float64 // account currency
	Pips       float64
	Reason     string
	Open       bool
}

func newTrade(instrument string, side Side, units, entry, stopPrice, takePrice float64, at time.Time) *Trade {
	return &Trade{
		Instrument: instrument,
		Side:       side,
		Units:      float64(side) * units,
		EntryPrice: entry,
		OpenTime:   at,
		StopLoss:   entry - float64(side)*stopPrice,
		TakeProfit: entry + float64(side)*takePrice,
		Highest:    entry,
		Lowest:     entry,
		Open:       true,
	}
}
