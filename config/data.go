package config

import (
	"fmt"
	"time"

	"github.com/rustyeddy/fxdqn/market"
)

// CandleSet loads the configured candles: data_path when set, otherwise
// the synthetic series. data_path is a candle CSV, or Dukascopy tick data
// (a .bi5 file or a directory of them) which loads as one minute candles.
// A timeframe coarser than the data's is applied by aggregation.
func (e EnvironmentConfig) CandleSet() (*market.CandleSet, error) {
	var cs *market.CandleSet
	switch {
	case e.DataPath != "" && market.IsBI5(e.DataPath):
		set, err := market.NewCandleSetBI5(e.Instrument, e.DataPath)
		if err != nil {
			return nil, err
		}
		cs = set
	case e.DataPath != "":
		set, err := market.NewCandleSet(e.Instrument, e.DataPath)
		if err != nil {
			return nil, err
		}
		cs = set
	default:
		set, err := e.synthetic()
		if err != nil {
			return nil, err
		}
		cs = set
	}

	if e.Timeframe == "" {
		return cs, nil
	}
	tf, err := market.ParseTimeframe(e.Timeframe)
	if err != nil {
		return nil, err
	}
	if tf == cs.Timeframe {
		return cs, nil
	}
	return cs.Aggregate(tf, 1)
}

func (e EnvironmentConfig) synthetic() (*market.CandleSet, error) {
	meta, err := market.Lookup(e.Instrument)
	if err != nil {
		return nil, err
	}
	s := e.Synthetic
	tf, err := market.ParseTimeframe(s.Timeframe)
	if err != nil {
		return nil, err
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if s.Start != "" {
		if start, err = time.Parse(time.RFC3339, s.Start); err != nil {
			return nil, fmt.Errorf("synthetic start: %w", err)
		}
	}
	cs := market.FromCandles(meta, market.SyntheticCandles(s.Candles, s.Seed, start, tf))
	cs.Source = "synthetic"
	return cs, nil
}
