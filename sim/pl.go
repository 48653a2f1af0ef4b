package sim

import "math"

// UnrealizedPL is the trade's profit at currentPrice in account currency.
func UnrealizedPL(t Trade, currentPrice float64, quoteToAccount float64) float64 {
	plQuote := t.Units * (currentPrice - t.EntryPrice)
	return plQuote * quoteToAccount
}

// pipsBetween is the signed move from entry to exit in the trade's favour,
// rounded to a tenth of a pip.
func pipsBetween(side Side, entry, exit, pipSize float64) float64 {
	p := float64(side) * (exit - entry) / pipSize
	return math.Round(p*10) / 10
}
