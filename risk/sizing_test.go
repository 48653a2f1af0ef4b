package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSize_USDQuote(t *testing.T) {
	t.Parallel()

	got := Size(Inputs{
		Balance:  10000,
		Percent:  0.01,
		StopPips: 100,
		PipValue: 0.0001,
	})

	assert.InDelta(t, 100.0, got.RiskAmount, 1e-9)
	assert.InDelta(t, 10000.0, got.Units, 1.0)
}

func TestSize_NonUSDQuoteConversion(t *testing.T) {
	t.Parallel()

	got := Size(Inputs{
		Balance:  5000,
		Percent:  0.02,
		StopPips: 50,
		PipValue: 0.01 * 0.0091,
	})

	assert.InDelta(t, 100.0, got.RiskAmount, 1e-9)
	assert.InDelta(t, 21978.0, got.Units, 1.0)
}

func TestSize_Degenerate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Inputs
	}{
		{"no stop", Inputs{Balance: 1000, Percent: 0.01, PipValue: 0.0001}},
		{"no balance", Inputs{Percent: 0.01, StopPips: 20, PipValue: 0.0001}},
		{"no pip value", Inputs{Balance: 1000, Percent: 0.01, StopPips: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Zero(t, Size(tt.in).Units)
		})
	}
}

func TestPlannedRiskMatchesSize(t *testing.T) {
	t.Parallel()

	in := Inputs{Balance: 2000, Percent: 0.005, StopPips: 25, PipValue: 0.0001}
	got := Size(in)

	risk := PlannedRisk(-got.Units, in.StopPips, in.PipValue)
	assert.LessOrEqual(t, risk, got.RiskAmount)
	assert.InDelta(t, got.RiskAmount, risk, in.StopPips*in.PipValue)
}

func TestRewardRisk(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.5, RewardRisk(20, 30), 1e-12)
	assert.Zero(t, RewardRisk(0, 30))
}
