package sim

import (
	"math"
	"time"

	"github.com/rustyeddy/fxdqn/indicators"
	"github.com/rustyeddy/fxdqn/market"
)

// fixedFeatures is the number of state values besides the close deltas.
const fixedFeatures = 7

var dayCodes = map[time.Weekday]float64{
	time.Monday:    0.1,
	time.Tuesday:   0.2,
	time.Wednesday: 0.3,
	time.Thursday:  0.4,
	time.Friday:    0.5,
}

// features holds the indicator series aligned with the candles.
type features struct {
	fast []float64
	slow []float64
	atr  []float64
	rsi  []float64
	// first candle index at which every feature is defined
	first int
}

func buildFeatures(cfg Config, candles []market.Candle) (features, error) {
	f := features{
		fast: indicators.Series(indicators.NewEMA(cfg.FastEMA), candles),
		slow: indicators.Series(indicators.NewEMA(cfg.SlowEMA), candles),
		atr:  indicators.Series(indicators.NewATR(cfg.ATRPeriod), candles),
	}
	rsi, err := indicators.RSISeries(indicators.Closes(candles), cfg.RSIPeriod)
	if err != nil {
		return features{}, err
	}
	f.rsi = rsi

	f.first = cfg.Window
	for i := range candles {
		if i < f.first {
			continue
		}
		if math.IsNaN(f.fast[i]) || math.IsNaN(f.slow[i]) || math.IsNaN(f.atr[i]) || math.IsNaN(f.rsi[i]) {
			f.first = i + 1
			continue
		}
		break
	}
	return f, nil
}

// state is the observation at candle i: window close deltas, body, range,
// fast minus slow EMA and ATR (all in pips), RSI/100, weekday code and
// hour/24.
func (e *Env) state(i int) []float64 {
	c := e.candles[i]
	w := e.cfg.Window
	s := make([]float64, 0, w+fixedFeatures)
	for k := i - w + 1; k <= i; k++ {
		s = append(s, e.meta.PriceToPips(e.candles[k].Close-e.candles[k-1].Close))
	}
	s = append(s,
		e.meta.PriceToPips(c.Body()),
		e.meta.PriceToPips(c.Range()),
		e.meta.PriceToPips(e.feat.fast[i]-e.feat.slow[i]),
		e.meta.PriceToPips(e.feat.atr[i]),
		e.feat.rsi[i]/100,
		dayCodes[c.Time.Weekday()],
		float64(c.Time.Hour())/24,
	)
	return s
}
