// market/instruments.go
package market

import (
	"fmt"
	"math"
	"strings"
)

type InstrumentMeta struct {
	Name                string
	BaseCurrency        string
	QuoteCurrency       string
	PipLocation         int
	TradeUnitsPrecision int
	MinimumTradeSize    float64
	MarginRate          float64
}

var Instruments = map[string]InstrumentMeta{
	"EUR_USD": {
		Name:                "EUR_USD",
		BaseCurrency:        "EUR",
		QuoteCurrency:       "USD",
		PipLocation:         -4,
		TradeUnitsPrecision: 0,
		MinimumTradeSize:    1,
		MarginRate:          0.02,
	},
	"GBP_USD": {
		Name:                "GBP_USD",
		BaseCurrency:        "GBP",
		QuoteCurrency:       "USD",
		PipLocation:         -4,
		TradeUnitsPrecision: 0,
		MinimumTradeSize:    1,
		MarginRate:          0.0333,
	},
	"USD_JPY": {
		Name:                "USD_JPY",
		BaseCurrency:        "USD",
		QuoteCurrency:       "JPY",
		PipLocation:         -2,
		TradeUnitsPrecision: 0,
		MinimumTradeSize:    1,
		MarginRate:          0.02,
	},
}

// Lookup returns the metadata of a known instrument.
func Lookup(name string) (InstrumentMeta, error) {
	m, ok := Instruments[name]
	if !ok {
		return InstrumentMeta{}, fmt.Errorf("unknown instrument %s", name)
	}
	return m, nil
}

// PipSize is the price change of one pip, e.g. 0.0001 for EUR_USD.
func (m InstrumentMeta) PipSize() float64 {
	return math.Pow10(m.PipLocation)
}

// PriceToPips converts a price difference to pips.
func (m InstrumentMeta) PriceToPips(delta float64) float64 {
	return delta / m.PipSize()
}

// PipsToPrice converts pips to a price difference.
func (m InstrumentMeta) PipsToPrice(pips float64) float64 {
	return pips * m.PipSize()
}

// Pair is the instrument name in lower case without separator, e.g. eurusd.
func (m InstrumentMeta) Pair() string {
	return strings.ToLower(strings.ReplaceAll(m.Name, "_", ""))
}
