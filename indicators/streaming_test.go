package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/fxdqn/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialMAStreaming(t *testing.T) {
	baseTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := []market.Candle{
		{Close: 102, Time: baseTime},
		{Close: 105, Time: baseTime.Add(time.Hour)},
		{Close: 106, Time: baseTime.Add(2 * time.Hour)},
		{Close: 108, Time: baseTime.Add(3 * time.Hour)},
		{Close: 110, Time: baseTime.Add(4 * time.Hour)},
		{Close: 111, Time: baseTime.Add(5 * time.Hour)},
		{Close: 113, Time: baseTime.Add(6 * time.Hour)},
	}

	t.Run("basic functionality", func(t *testing.T) {
		ema := NewEMA(3)
		assert.Equal(t, "EMA(3)", ema.Name())
		assert.Equal(t, 3, ema.Warmup())
		assert.False(t, ema.Ready())
		assert.Equal(t, 0.0, ema.Value())

		// Update with first two candles
		ema.Update(candles[0])
		ema.Update(candles[1])
		assert.False(t, ema.Ready())

		// Update with third candle - should initialize with SMA
		ema.Update(candles[2])
		assert.True(t, ema.Ready())
		expectedSMA := (102.0 + 105.0 + 106.0) / 3.0
		assert.InDelta(t, expectedSMA, ema.Value(), 0.001)

		// Update with fourth candle - should apply EMA formula
		ema.Update(candles[3])
		assert.True(t, ema.Ready())
		// EMA formula: (close - prevEMA) * multiplier + prevEMA
		// multiplier = 2/(3+1) = 0.5
		expectedEMA := (108.0-expectedSMA)*0.5 + expectedSMA
		assert.InDelta(t, expectedEMA, ema.Value(), 0.001)
	})

	t.Run("reset functionality", func(t *testing.T) {
		ema := NewEMA(2)
		ema.Update(candles[0])
		ema.Update(candles[1])
		assert.True(t, ema.Ready())

		ema.Reset()
		assert.False(t, ema.Ready())
		assert.Equal(t, 0.0, ema.Value())
	})

	t.Run("seeded with the simple average", func(t *testing.T) {
		ema := NewEMA(5)
		for _, c := range candles {
			ema.Update(c)
		}

		// seed (102+105+106+108+110)/5 = 106.2, multiplier 1/3
		want := 106.2
		want += (111 - want) / 3
		want += (113 - want) / 3
		assert.InDelta(t, want, ema.Value(), 0.001)
	})
}

func TestAverageTrueRangeStreaming(t *testing.T) {
	baseTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := []market.Candle{
		{High: 10, Low: 8, Close: 9, Time: baseTime},
		{High: 11, Low: 9, Close: 10, Time: baseTime.Add(time.Hour)},
		{High: 12, Low: 10, Close: 11, Time: baseTime.Add(2 * time.Hour)},
		{High: 11, Low: 9, Close: 10, Time: baseTime.Add(3 * time.Hour)},
		{High: 12, Low: 10, Close: 11, Time: baseTime.Add(4 * time.Hour)},
		{High: 13, Low: 11, Close: 12, Time: baseTime.Add(5 * time.Hour)},
	}

	t.Run("basic functionality", func(t *testing.T) {
		atr := NewATR(3)
		assert.Equal(t, "ATR(3)", atr.Name())
		assert.Equal(t, 4, atr.Warmup()) // period + 1
		assert.False(t, atr.Ready())
		assert.Equal(t, 0.0, atr.Value())

		// First candle just stores for reference
		atr.Update(candles[0])
		assert.False(t, atr.Ready())

		// Second and third candles accumulate
		atr.Update(candles[1])
		assert.False(t, atr.Ready())
		atr.Update(candles[2])
		assert.False(t, atr.Ready())

		// Fourth candle completes warmup
		atr.Update(candles[3])
		assert.True(t, atr.Ready())
		// Average of 3 TRs (each should be 2.0 for this test data)
		assert.InDelta(t, 2.0, atr.Value(), 0.001)
	})

	t.Run("reset functionality", func(t *testing.T) {
		atr := NewATR(2)
		atr.Update(candles[0])
		atr.Update(candles[1])
		atr.Update(candles[2])
		assert.True(t, atr.Ready())

		atr.Reset()
		assert.False(t, atr.Ready())
		assert.Equal(t, 0.0, atr.Value())
	})

	t.Run("wilder smoothing", func(t *testing.T) {
		atr := NewATR(3)
		for _, c := range candles {
			atr.Update(c)
		}

		// every true range in this data is 2
		assert.InDelta(t, 2.0, atr.Value(), 0.001)
	})
}

func TestIndicatorInterface(t *testing.T) {
	// Test that all indicators implement the Indicator interface
	var _ Indicator = &ExponentialMA{}
	var _ Indicator = &ATR{}

	t.Run("all indicators have consistent interface", func(t *testing.T) {
		baseTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		candles := []market.Candle{
			{High: 105, Low: 99, Close: 102, Time: baseTime},
			{High: 107, Low: 101, Close: 105, Time: baseTime.Add(time.Hour)},
			{High: 108, Low: 104, Close: 106, Time: baseTime.Add(2 * time.Hour)},
			{High: 110, Low: 105, Close: 108, Time: baseTime.Add(3 * time.Hour)},
			{High: 112, Low: 107, Close: 110, Time: baseTime.Add(4 * time.Hour)},
		}

		indicators := []Indicator{
			NewEMA(3),
			NewATR(2),
		}

		for _, ind := range indicators {
			// All should start not ready
			assert.False(t, ind.Ready(), "indicator %s should not be ready initially", ind.Name())

			// Feed candles
			for _, c := range candles {
				ind.Update(c)
			}

			// All should be ready after sufficient candles
			assert.True(t, ind.Ready(), "indicator %s should be ready after warmup", ind.Name())

			// Value should be non-zero
			assert.Greater(t, ind.Value(), 0.0, "indicator %s should have positive value", ind.Name())

			// Reset should make them not ready
			ind.Reset()
			assert.False(t, ind.Ready(), "indicator %s should not be ready after reset", ind.Name())
		}
	})
}

func TestSeriesMarksWarmup(t *testing.T) {
	baseTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var candles []market.Candle
	for i := 0; i < 6; i++ {
		px := 1.1 + float64(i)*0.001
		candles = append(candles, market.Candle{
			Open: px, High: px + 0.0005, Low: px - 0.0005, Close: px,
			Time: baseTime.Add(time.Duration(i) * time.Hour),
		})
	}

	ema := NewEMA(3)
	ema.Update(candles[0]) // Series resets first
	got := Series(ema, candles)
	require.Len(t, got, 6)
	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	// seed 1.101, then halfway towards each new close
	assert.InDelta(t, 1.101, got[2], 1e-9)
	assert.InDelta(t, 1.104, got[5], 1e-9)

	atr := Series(NewATR(2), candles)
	assert.True(t, math.IsNaN(atr[1]))
	assert.InDelta(t, 0.0015, atr[2], 1e-12)
}

func TestCloses(t *testing.T) {
	candles := []market.Candle{{Close: 1}, {Close: 2}}
	assert.Equal(t, []float64{1, 2}, Closes(candles))
	assert.Empty(t, Closes(nil))
}
