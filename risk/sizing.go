// Package risk sizes positions so that a stop-out costs a fixed share of
// the account balance.
package risk

import "math"

// Inputs describes one planned entry. StopPips is the distance to the
// stop; PipValue is what a one pip move on a single unit is worth in the
// account currency.
type Inputs struct {
	Balance  float64
	Percent  float64 // 0.01 risks one percent of the balance
	StopPips float64
	PipValue float64 // EUR_USD in a USD account → 0.0001
}

type Result struct {
	Units      float64
	RiskAmount float64
}

// Size returns whole units whose stop-out loses at most Percent of
// Balance. Degenerate inputs size to zero.
func Size(in Inputs) Result {
	riskAmt := in.Balance * in.Percent
	if riskAmt <= 0 || in.StopPips <= 0 || in.PipValue <= 0 {
		return Result{RiskAmount: max(riskAmt, 0)}
	}

	units := riskAmt / (in.StopPips * in.PipValue)
	return Result{
		Units:      math.Floor(units),
		RiskAmount: riskAmt,
	}
}

// PlannedRisk is the account-currency loss if a position of units is
// stopped out stopPips away.
func PlannedRisk(units, stopPips, pipValue float64) float64 {
	return math.Abs(units) * stopPips * pipValue
}

// RewardRisk is the take-profit distance over the stop distance.
func RewardRisk(stopPips, takeProfitPips float64) float64 {
	if stopPips == 0 {
		return 0
	}
	return takeProfitPips / stopPips
}
