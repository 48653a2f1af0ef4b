package sim

import "github.com/rustyeddy/fxdqn/market"

func hitStopLoss(t *Trade, c market.Candle) bool {
	if t.Units > 0 {
		return c.Low <= t.StopLoss
	}
	return c.High >= t.StopLoss
}

func hitTakeProfit(t *Trade, c market.Candle) bool {
	if t.Units > 0 {
		return c.High >= t.TakeProfit
	}
	return c.Low <= t.TakeProfit
}

// checkExit tracks the trade's extremes over c and reports the exit price
// and reason. When both levels lie inside one candle the stop wins.
func checkExit(t *Trade, c market.Candle) (exit float64, reason string, hit bool) {
	if !t.Open {
		return 0, "", false
	}
	t.Highest = max(t.Highest, c.High)
	t.Lowest = min(t.Lowest, c.Low)

	switch {
	case hitStopLoss(t, c):
		return t.StopLoss, ReasonStopLoss, true
	case hitTakeProfit(t, c):
		return t.TakeProfit, ReasonTakeProfit, true
	}
	return 0, "", false
}
