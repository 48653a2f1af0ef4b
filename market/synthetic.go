package market

import (
	"math"
	"math/rand"
	"time"
)

// SyntheticCandles returns n deterministic EUR_USD-like candles starting at
// start and spaced by timeframe, skipping weekends for intraday timeframes.
// The close follows a drift that changes regime every few hundred bars, two
// cycles and seeded noise.
func SyntheticCandles(n int, seed int64, start time.Time, timeframe time.Duration) []Candle {
	if n <= 0 || timeframe <= 0 {
		return nil
	}
	const pip = 0.0001
	rng := rand.New(rand.NewSource(seed))

	out := make([]Candle, 0, n)
	level := 1.10
	drift := 0.0
	prevClose := level
	t := start.UTC()

	for i := 0; i < n; i++ {
		if i%300 == 0 {
			drift = (rng.Float64()*2 - 1) * 0.8 * pip
		}
		level += drift + rng.NormFloat64()*4*pip
		x := float64(i)
		cycle := 30*pip*math.Sin(2*math.Pi*x/120) + 10*pip*math.Sin(2*math.Pi*x/24+0.9)
		cl := math.Max(0.2, level+cycle)

		open := prevClose
		high := math.Max(open, cl) + math.Abs(rng.NormFloat64())*3*pip
		low := math.Min(open, cl) - math.Abs(rng.NormFloat64())*3*pip
		out = append(out, Candle{
			Time:   t,
			Open:   round5(open),
			High:   round5(high),
			Low:    round5(low),
			Close:  round5(cl),
			Volume: float64(100 + rng.Intn(900)),
		})
		prevClose = cl

		t = t.Add(timeframe)
		if timeframe < 24*time.Hour {
			for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
				t = t.Add(timeframe)
			}
		}
	}
	return out
}

func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
