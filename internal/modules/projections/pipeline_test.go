package projections

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/balance"
)

// flatPrices returns the same merchant prices for every period.
func flatPrices(profile, priceType, region, periodKey string) (float64, bool) {
	switch priceType {
	case "Energy":
		return 65, true
	case "green":
		return 28, true
	}
	return 0, false
}

func testInputs() Inputs {
	consts := domain.DefaultConstants()
	consts.StartYear = 2025
	consts.EndYear = 2049

	solar := domain.Asset{
		Name:           "Plains Solar",
		Technology:     domain.TechnologySolar,
		CapacityMW:     100,
		Region:         "NSW",
		StartDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		LifeYears:      30,
		Degradation:    0.4,
		CapacityFactor: 0.28,
		Contracts: []domain.Contract{{
			Kind:            domain.ContractBundled,
			CounterpartyPct: 70,
			GreenPrice:      30,
			EnergyPrice:     55,
			StartDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:         time.Date(2039, 12, 31, 0, 0, 0, 0, time.UTC),
		}},
	}

	wind := domain.Asset{
		Name:           "Ridge Wind",
		Technology:     domain.TechnologyWind,
		CapacityMW:     150,
		Region:         "VIC",
		StartDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		LifeYears:      30,
		CapacityFactor: 0.38,
		Contracts: []domain.Contract{{
			Kind:            domain.ContractCfD,
			CounterpartyPct: 60,
			StrikePrice:     70,
			Escalation:      2.0,
			StartDate:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:         time.Date(2040, 12, 31, 0, 0, 0, 0, time.UTC),
		}},
	}

	return Inputs{
		Assets: []domain.Asset{solar, wind},
		Profiles: map[string]domain.AssetCostProfile{
			"Plains Solar": {
				Capex:              110,
				OperatingCost:      3.5,
				TerminalValue:      8,
				MaxGearing:         0.70,
				TargetDSCRContract: 1.35,
				TargetDSCRMerchant: 1.80,
				InterestRate:       0.06,
				TenorYears:         18,
				DebtStructure:      domain.DebtStructureSculpting,
			},
			"Ridge Wind": {
				Capex:               260,
				OperatingCost:       7,
				MaxGearing:          0.65,
				InterestRate:        0.055,
				TenorYears:          15,
				DebtStructure:       domain.DebtStructureAmortization,
				EquityTimingUpfront: true,
			},
		},
		Constants: consts,
		Equity: balance.EquityStructure{
			TotalInvestment: 420,
			ExternalPct:     70,
		},
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	pipeline := NewPipeline(flatPrices, zerolog.Nop())

	result, err := pipeline.Run(context.Background(), testInputs())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.RunID)
	assert.False(t, result.GeneratedAt.IsZero())
	require.Len(t, result.Assets, 2)

	solar := result.Assets["Plains Solar"]
	require.NotNil(t, solar)

	// Sculpted debt sized to a positive amount inside the gearing cap
	assert.Greater(t, solar.Schedule.DebtAmount, 0.0)
	assert.LessOrEqual(t, solar.Schedule.Gearing, 0.70+1e-9)
	assert.True(t, solar.Schedule.FullyRepaid)

	wind := result.Assets["Ridge Wind"]
	require.NotNil(t, wind)

	// Amortization is fixed at the gearing cap
	assert.InDelta(t, 260*0.65, wind.Schedule.DebtAmount, 1e-9)

	// 25 window years of statements, quarterly = 4x
	assert.Len(t, result.Statements.PlatformAnnual, 25)
	assert.Len(t, result.Statements.PlatformQuarterly, 100)
	assert.Len(t, result.CashFlowAnnual, 25)
	assert.Len(t, result.CashFlowQuarterly, 100)

	// Inception plus one sheet per annual period, all balanced
	require.Len(t, result.BalanceSheets, 26)
	for _, bs := range result.BalanceSheets {
		assert.True(t, bs.Balanced, "period %s", bs.Period)
	}

	// Portfolio equity aggregates both assets and produces a return
	assert.Greater(t, result.PortfolioMetrics.TotalInvested, 0.0)
	require.NotNil(t, result.PortfolioMetrics.IRR)
	assert.Greater(t, *result.PortfolioMetrics.IRR, -0.99)
	assert.Less(t, *result.PortfolioMetrics.IRR, 5.0)
}

func TestPipelineCashFlowShape(t *testing.T) {
	pipeline := NewPipeline(flatPrices, zerolog.Nop())

	result, err := pipeline.Run(context.Background(), testInputs())
	require.NoError(t, err)

	solar := result.Assets["Plains Solar"]
	require.NotEmpty(t, solar.CashFlows)

	first := solar.CashFlows[0]
	assert.Equal(t, 2025, first.Year)
	assert.Greater(t, first.ContractedRevenue, 0.0)
	assert.Greater(t, first.MerchantRevenue, 0.0)
	assert.InDelta(t, first.Revenue()-first.Opex, first.OperatingCashFlow, 1e-9)

	// During the tenor the financing lines are populated and consistent
	assert.Greater(t, first.DebtService, 0.0)
	assert.InDelta(t, first.OperatingCashFlow-first.DebtService, first.EquityCashFlow, 1e-9)
	assert.InDelta(t, first.OperatingCashFlow/first.DebtService, first.DSCR, 1e-9)

	// Window ends 2049 before the solar asset's 2054 retirement, so no
	// terminal value lands inside these cash flows
	last := solar.CashFlows[len(solar.CashFlows)-1]
	assert.Equal(t, 2049, last.Year)
	assert.Zero(t, last.DebtService)
}

func TestPipelineTerminalValueInFinalOperatingYear(t *testing.T) {
	in := testInputs()
	// Shrink the asset life so retirement falls inside the window
	in.Assets = in.Assets[:1]
	in.Assets[0].LifeYears = 10
	in.Assets[0].Contracts = nil

	pipeline := NewPipeline(flatPrices, zerolog.Nop())
	result, err := pipeline.Run(context.Background(), in)
	require.NoError(t, err)

	solar := result.Assets["Plains Solar"]
	require.Len(t, solar.CashFlows, 10)

	last := solar.CashFlows[len(solar.CashFlows)-1]
	prev := solar.CashFlows[len(solar.CashFlows)-2]

	// Output degrades year over year, so the jump in the final year is the
	// terminal value arriving
	assert.Greater(t, last.OperatingCashFlow, prev.OperatingCashFlow)
	assert.InDelta(t, 8.0, last.OperatingCashFlow-(last.Revenue()-last.Opex), 1e-9)
}

func TestPortfolioRefinanceRequiresProfileAndScale(t *testing.T) {
	pipeline := NewPipeline(flatPrices, zerolog.Nop())

	// No portfolio profile: no refinancing
	result, err := pipeline.Run(context.Background(), testInputs())
	require.NoError(t, err)
	assert.Nil(t, result.PortfolioRefinance)

	// With a portfolio profile the combined book gets sized
	in := testInputs()
	in.Profiles[domain.PortfolioProfileKey] = domain.AssetCostProfile{
		MaxGearing:         0.75,
		TargetDSCRContract: 1.30,
		TargetDSCRMerchant: 1.70,
		InterestRate:       0.05,
		TenorYears:         20,
	}
	result, err = pipeline.Run(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, result.PortfolioRefinance)
	assert.Greater(t, result.PortfolioRefinance.DebtAmount, 0.0)

	// A single asset never triggers portfolio refinancing
	in.Assets = in.Assets[:1]
	result, err = pipeline.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, result.PortfolioRefinance)
}

func TestPipelineErrors(t *testing.T) {
	pipeline := NewPipeline(flatPrices, zerolog.Nop())

	_, err := pipeline.Run(context.Background(), Inputs{})
	assert.Error(t, err)

	// Every asset missing its profile is an error, not an empty result
	in := testInputs()
	in.Profiles = nil
	_, err = pipeline.Run(context.Background(), in)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pipeline.Run(ctx, testInputs())
	assert.Error(t, err)
}
