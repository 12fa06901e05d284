package returns

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/debt"
)

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func TestSolveIRRRoundTrip(t *testing.T) {
	cashflows := []float64{-100, 30, 30, 30, 30, 30}

	rate := SolveIRR(cashflows, DefaultGuess)
	require.NotNil(t, rate)

	// The solved rate discounts the vector to (approximately) zero
	assert.InDelta(t, 0, NPV(cashflows, *rate), 1e-4)
	// Known solution for this vector is ~15.2%
	assert.InDelta(t, 0.152, *rate, 0.005)
}

func TestSolveIRRGuardClauses(t *testing.T) {
	// Positive first entry: not an investment
	assert.Nil(t, SolveIRR([]float64{100, 30, 30}, DefaultGuess))

	// No positive inflow: nothing to recover
	assert.Nil(t, SolveIRR([]float64{-100, -10, -10}, DefaultGuess))

	// Too short
	assert.Nil(t, SolveIRR([]float64{-100}, DefaultGuess))
	assert.Nil(t, SolveIRR(nil, DefaultGuess))
}

func TestSolveIRRNegativeReturn(t *testing.T) {
	// Recovers less than invested: IRR is negative but solvable
	rate := SolveIRR([]float64{-100, 40, 40}, DefaultGuess)
	require.NotNil(t, rate)
	assert.Less(t, *rate, 0.0)
	assert.Greater(t, *rate, RateFloor)
}

func TestNPVAtZeroRate(t *testing.T) {
	assert.InDelta(t, 10.0, NPV([]float64{-100, 50, 60}, 0), 1e-12)
}

func TestBuildAssetVectorUpfrontEquity(t *testing.T) {
	asset := domain.Asset{
		Name:       "Sunrise Solar",
		Technology: domain.TechnologySolar,
		StartDate:  date(2026, 1, 1),
		LifeYears:  3,
	}
	profile := domain.AssetCostProfile{
		Capex:               100,
		EquityTimingUpfront: true,
	}
	schedule := debt.Schedule{DebtAmount: 70}
	cashflows := []domain.PeriodCashFlow{
		{Year: 2026, OperatingCashFlow: 12},
		{Year: 2027, OperatingCashFlow: 12},
		{Year: 2028, OperatingCashFlow: 12},
	}

	v := BuildAssetVector(asset, profile, schedule, cashflows)

	require.Len(t, v.Flows, 4)
	assert.Equal(t, 2025, v.StartYear)
	assert.Equal(t, -30.0, v.Flows[0])
	// No debt service entries on a bare schedule: equity gets the full OCF
	assert.Equal(t, 12.0, v.Flows[1])
}

func TestAggregatePortfolioAlignsByYear(t *testing.T) {
	a := EquityCashFlowVector{StartYear: 2025, Flows: []float64{-30, 10, 10}}
	b := EquityCashFlowVector{StartYear: 2026, Flows: []float64{-20, 8, 8}}

	portfolio := AggregatePortfolio([]EquityCashFlowVector{a, b})

	assert.Equal(t, 2025, portfolio.StartYear)
	require.Len(t, portfolio.Flows, 4)
	assert.Equal(t, -30.0, portfolio.Flows[0])
	assert.Equal(t, -10.0, portfolio.Flows[1]) // 10 + (-20)
	assert.Equal(t, 18.0, portfolio.Flows[2])
	assert.Equal(t, 8.0, portfolio.Flows[3])
}

func TestComputeMetrics(t *testing.T) {
	v := EquityCashFlowVector{StartYear: 2025, Flows: []float64{-100, 30, 30, 30, 30, 30}}

	m := ComputeMetrics(v)

	assert.Equal(t, 100.0, m.TotalInvested)
	assert.Equal(t, 150.0, m.TotalReturned)
	assert.InDelta(t, 50.0, m.NetCashFlow, 1e-9)
	assert.InDelta(t, 1.5, m.MOIC, 1e-9)
	require.NotNil(t, m.IRR)
	assert.False(t, math.IsNaN(*m.IRR))
}
